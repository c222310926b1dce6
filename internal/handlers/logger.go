package handlers

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/mattn/go-isatty"
)

// Color constants for terminal output
const (
	cRed     = "\u001b[91m"
	cGreen   = "\u001b[92m"
	cYellow  = "\u001b[93m"
	cBlue    = "\u001b[94m"
	cMagenta = "\u001b[95m"
	cCyan    = "\u001b[96m"
	cReset   = "\u001b[0m"
)

// DefaultSampleEvery is how many hits on a sampled path produce one log line
const DefaultSampleEvery = 20

func statusColor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return cGreen
	case status >= 300 && status < 400:
		return cBlue
	case status >= 400 && status < 500:
		return cYellow
	default:
		return cRed
	}
}

func methodColor(method string) string {
	switch method {
	case fiber.MethodGet:
		return cCyan
	case fiber.MethodPost:
		return cGreen
	case fiber.MethodDelete:
		return cRed
	default:
		return cMagenta
	}
}

// SamplingLogger logs every request except hits on the sampled paths
// (health probes), of which only one in every n is logged.
func SamplingLogger(out io.Writer, every uint64, sampled ...string) fiber.Handler {
	if every == 0 {
		every = DefaultSampleEvery
	}

	enableColors := false
	if f, ok := out.(*os.File); ok {
		enableColors = isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
	}

	defaultLogger := logger.New(logger.Config{
		Format:        "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		Output:        out,
		DisableColors: !enableColors,
	})

	counters := make(map[string]*uint64, len(sampled))
	for _, path := range sampled {
		counters[path] = new(uint64)
	}

	return func(c *fiber.Ctx) error {
		counter, ok := counters[c.Path()]
		if !ok {
			return defaultLogger(c)
		}

		count := atomic.AddUint64(counter, 1)
		if count%every != 0 {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		method := c.Method()
		sc, mc, reset := "", "", ""
		if enableColors {
			sc, mc, reset = statusColor(status), methodColor(method), cReset
		}

		fmt.Fprintf(out, "%s | %s%d%s | %13s | %s | %s%s%s | %s | - [sampled: %d calls]\n",
			time.Now().Format("15:04:05"),
			sc, status, reset,
			duration,
			c.IP(),
			mc, method, reset,
			c.Path(),
			count)

		return err
	}
}
