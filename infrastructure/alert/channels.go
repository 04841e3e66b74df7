package alert

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"futures-algo-go/infrastructure/logger"
)

// LogChannel 通过结构化日志输出告警。
type LogChannel struct {
	logger *logger.Logger
	name   string
}

func NewLogChannel(name string, log *logger.Logger) *LogChannel {
	if log == nil {
		log = logger.Nop()
	}
	return &LogChannel{logger: log, name: name}
}

func (c *LogChannel) Send(alert Alert) error {
	fields := []zap.Field{
		zap.String("alert_level", string(alert.Level)),
		zap.String("kind", alert.Kind),
		zap.String("strategy", alert.Strategy),
		zap.String("symbol", alert.Symbol),
		zap.Time("at", alert.Timestamp),
	}
	for _, k := range sortedKeys(alert.Fields) {
		fields = append(fields, zap.Any(k, alert.Fields[k]))
	}
	switch alert.Level {
	case LevelError, LevelCritical:
		c.logger.Error("alert: "+alert.Message, fields...)
	case LevelWarning:
		c.logger.Warn("alert: "+alert.Message, fields...)
	default:
		c.logger.Info("alert: "+alert.Message, fields...)
	}
	return nil
}

func (c *LogChannel) Name() string { return c.name }

// ConsoleChannel 控制台告警通道（彩色输出）
type ConsoleChannel struct {
	name string
	out  io.Writer
}

// NewConsoleChannel out 为空时写 stderr。
func NewConsoleChannel(name string, out io.Writer) *ConsoleChannel {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleChannel{name: name, out: out}
}

func (c *ConsoleChannel) Send(alert Alert) error {
	const reset = "\033[0m"
	color := reset
	switch alert.Level {
	case LevelInfo:
		color = "\033[32m"
	case LevelWarning:
		color = "\033[33m"
	case LevelError:
		color = "\033[31m"
	case LevelCritical:
		color = "\033[35m"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s %s", color, alert.Level, reset, alert.Timestamp.Format("2006-01-02 15:04:05"))
	if alert.Strategy != "" || alert.Symbol != "" {
		fmt.Fprintf(&b, " %s/%s", alert.Strategy, alert.Symbol)
	}
	if alert.Kind != "" {
		fmt.Fprintf(&b, " %s", alert.Kind)
	}
	fmt.Fprintf(&b, " - %s", alert.Message)
	if len(alert.Fields) > 0 {
		b.WriteString(" |")
		for _, k := range sortedKeys(alert.Fields) {
			fmt.Fprintf(&b, " %s=%v", k, alert.Fields[k])
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *ConsoleChannel) Name() string { return c.name }

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
