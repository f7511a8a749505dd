// Command modbus-rtu-poller opens a serial link, polls a list of addresses
// described in a YAML file on their own intervals, and prints one JSON line
// per result to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	modbus "github.com/halvero/modbusrtu"
	"github.com/halvero/modbusrtu/hooks"
	"github.com/halvero/modbusrtu/poller"
	"github.com/halvero/modbusrtu/transport"
)

type pollListConfig struct {
	Jobs []jobConfig `yaml:"jobs"`
}

type jobConfig struct {
	Name     string        `yaml:"name"`
	Address  string        `yaml:"address"`
	Kind     string        `yaml:"kind"`
	Interval time.Duration `yaml:"interval"`
}

func main() {
	var (
		portName      = pflag.String("port", "/dev/ttyUSB0", "serial device path")
		baud          = pflag.Int("baud", 19200, "serial baud rate")
		station       = pflag.Uint8("station", 1, "default slave station when an address omits s=")
		wordSwap      = pflag.Bool("word-swap", true, "swap bytes within each 16 bit word")
		multiWordSwap = pflag.Bool("multi-word-swap", false, "swap word order within 32/64 bit scalars")
		baseOne       = pflag.Bool("address-base-one", false, "treat address offsets in the poll list as 1-based")
		configPath    = pflag.String("config", "pollist.yaml", "path to the YAML poll-list configuration")
		logWire       = pflag.Bool("log-wire", false, "log every request/response frame at debug level")
	)
	pflag.Parse()

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("reading poll list config failed")
	}
	var conf pollListConfig
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		logger.WithError(err).Fatal("parsing poll list config failed")
	}

	jobs, err := toPollerJobs(conf.Jobs)
	if err != nil {
		logger.WithError(err).Fatal("invalid poll list config")
	}

	tr, err := transport.Open(transport.SerialConfig{
		Name: *portName,
		Baud: *baud,
	})
	if err != nil {
		logger.WithError(err).Fatal("opening serial port failed")
	}
	defer tr.Close()

	opts := []modbus.Option{
		modbus.WithStation(*station),
		modbus.WithWordSwap(*wordSwap),
		modbus.WithMultiWordSwap(*multiWordSwap),
	}
	if *baseOne {
		opts = append(opts, modbus.WithAddressBaseOne())
	}
	if *logWire {
		opts = append(opts, modbus.WithHooks(hooks.NewLoggingHooks(logger)))
	}
	client := modbus.NewClient(tr, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p := poller.NewPollerWithConfig(client, jobs, poller.Config{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	})

	go printResults(ctx, p.ResultChan)

	logger.WithFields(logrus.Fields{"port": *portName, "jobs": len(jobs)}).Info("polling started")
	if err := p.Poll(ctx); err != nil {
		logger.WithError(err).Error("polling ended with failure")
		return
	}
	logger.Info("polling ended")
}

func printResults(ctx context.Context, resultChan <-chan poller.Result) {
	for {
		select {
		case res := <-resultChan:
			line, err := json.Marshal(struct {
				Name  string    `json:"name"`
				Time  time.Time `json:"time"`
				Value any       `json:"value"`
			}{Name: res.Name, Time: res.Time, Value: res.Value})
			if err != nil {
				continue
			}
			fmt.Println(string(line))
		case <-ctx.Done():
			return
		}
	}
}

func toPollerJobs(cfgs []jobConfig) ([]poller.Job, error) {
	jobs := make([]poller.Job, 0, len(cfgs))
	for _, c := range cfgs {
		kind, err := parseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", c.Name, err)
		}
		interval := c.Interval
		if interval <= 0 {
			interval = time.Second
		}
		jobs = append(jobs, poller.Job{
			Name:     c.Name,
			Address:  c.Address,
			Kind:     kind,
			Interval: interval,
		})
	}
	return jobs, nil
}

func parseKind(s string) (poller.ValueKind, error) {
	switch s {
	case "uint16":
		return poller.KindUint16, nil
	case "int16":
		return poller.KindInt16, nil
	case "uint32":
		return poller.KindUint32, nil
	case "int32":
		return poller.KindInt32, nil
	case "uint64":
		return poller.KindUint64, nil
	case "int64":
		return poller.KindInt64, nil
	case "float32":
		return poller.KindFloat32, nil
	case "float64":
		return poller.KindFloat64, nil
	case "coil":
		return poller.KindCoil, nil
	case "discrete":
		return poller.KindDiscrete, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
