// Package poller runs a set of typed Modbus reads on independent intervals
// against one shared Client, reporting each successful result on a channel
// and logging failed reads.
// Adapted from a multi-connection TCP batch poller down to a single RTU
// link: there is exactly one physical transport, so jobs share one Client
// instead of each owning a connection, and addresses are the address
// expressions this library parses instead of server URLs.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	modbus "github.com/halvero/modbusrtu"
)

const jobHealthTickInterval = 60 * time.Second

// ValueKind selects which typed Client read method a Job issues on every tick.
type ValueKind uint8

const (
	KindUint16 ValueKind = iota
	KindInt16
	KindUint32
	KindInt32
	KindUint64
	KindInt64
	KindFloat32
	KindFloat64
	KindCoil
	KindDiscrete
)

// Job describes one address to poll on an interval.
type Job struct {
	// Name identifies this job in Result and in logs.
	Name string
	// Address is the address expression (e.g. "s=2;x=4;100") to read from.
	Address string
	// Kind selects the typed read issued every tick.
	Kind ValueKind
	// Interval is the time between reads. Must be positive.
	Interval time.Duration
}

// Result carries one successful read. Failed reads produce no Result; they
// are logged and passed to Config.OnReadErrorFunc when one is set.
type Result struct {
	// Name is the Job.Name this result came from.
	Name string
	// Time is when the read that produced this result was started.
	Time time.Time
	// Value holds the typed value on success: bool, uint16, int16, uint32,
	// int32, uint64, int64, float32 or float64 depending on Job.Kind.
	Value any
}

// Config configures a Poller.
type Config struct {
	// Logger is used for operational logging. Defaults to slog.Default.
	Logger *slog.Logger
	// OnReadErrorFunc is called when a read fails. Returning nil suppresses
	// the error (it will not be logged as a failure or counted), useful for
	// servers that return an expected exception while some subsystem is off.
	OnReadErrorFunc func(name string, err error) error
	// TimeNow allows mocking Result.Time in tests. Defaults to time.Now.
	TimeNow func() time.Time
}

// Poller issues reads from a fixed set of Jobs against one Client, each on
// its own ticker, and publishes successful results on ResultChan.
type Poller struct {
	client *modbus.Client
	logger *slog.Logger

	isRunning atomic.Bool
	jobs      []job

	ResultChan chan Result
}

// NewPollerWithConfig creates a Poller for jobs against client.
func NewPollerWithConfig(client *modbus.Client, jobs []Job, conf Config) *Poller {
	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeNow := conf.TimeNow
	if timeNow == nil {
		timeNow = time.Now
	}

	p := &Poller{
		client:     client,
		logger:     logger,
		ResultChan: make(chan Result, 2*len(jobs)),
		jobs:       make([]job, len(jobs)),
	}
	for i, j := range jobs {
		p.jobs[i] = job{
			def:             j,
			client:          client,
			logger:          logger,
			timeNow:         timeNow,
			onReadErrorFunc: conf.OnReadErrorFunc,
			stats: jobStatistics{
				stats: JobStatistics{Name: j.Name, Address: j.Address},
			},
			resultsChan: p.ResultChan,
		}
	}
	return p
}

// NewPoller creates a Poller with default configuration.
func NewPoller(client *modbus.Client, jobs []Job) *Poller {
	return NewPollerWithConfig(client, jobs, Config{})
}

// JobStatistics returns a snapshot of every job's running statistics.
func (p *Poller) JobStatistics() []JobStatistics {
	result := make([]JobStatistics, len(p.jobs))
	for i := range p.jobs {
		result[i] = p.jobs[i].stats.Stats()
	}
	return result
}

// Poll starts every job on its own goroutine and blocks until ctx is done.
// Returns an error immediately if Poll is already running.
func (p *Poller) Poll(ctx context.Context) error {
	if already := p.isRunning.Swap(true); already {
		return errors.New("poller is already running")
	}
	defer p.isRunning.Store(false)

	if len(p.jobs) == 0 {
		<-ctx.Done()
		return nil
	}

	wg := new(sync.WaitGroup)
	for i := range p.jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			j.Start(ctx)
		}(&p.jobs[i])
	}
	wg.Wait()
	return nil
}

type job struct {
	def             Job
	client          *modbus.Client
	logger          *slog.Logger
	timeNow         func() time.Time
	onReadErrorFunc func(name string, err error) error

	stats jobStatistics

	resultsChan chan Result
}

func (j *job) Start(ctx context.Context) {
	const defaultRetry = 1 * time.Second
	const maxRetry = 1 * time.Minute
	retryTime := defaultRetry
	delay := time.NewTimer(retryTime)
	defer delay.Stop()

	for {
		start := j.timeNow()
		j.stats.IncStartCount()
		err := j.poll(ctx)

		if err == nil || ctx.Err() != nil {
			return
		}
		elapsed := j.timeNow().Sub(start)
		if elapsed > 1*time.Minute {
			retryTime = defaultRetry
		} else {
			retryTime = min(retryTime*2, maxRetry)
		}
		j.logger.Error("poll failed",
			"job", j.def.Name,
			"error", err,
			"elapsed", elapsed,
			"retry_time", retryTime,
		)

		if !delay.Stop() {
			select {
			case <-delay.C:
			default:
			}
		}
		delay.Reset(retryTime)
		select {
		case <-delay.C:
			continue
		case <-ctx.Done():
			return
		}
	}
}

func (j *job) readOnce() (any, error) {
	addr := j.def.Address
	switch j.def.Kind {
	case KindUint16:
		return j.client.ReadUint16(addr)
	case KindInt16:
		return j.client.ReadInt16(addr)
	case KindUint32:
		return j.client.ReadUint32(addr)
	case KindInt32:
		return j.client.ReadInt32(addr)
	case KindUint64:
		return j.client.ReadUint64(addr)
	case KindInt64:
		return j.client.ReadInt64(addr)
	case KindFloat32:
		return j.client.ReadFloat32(addr)
	case KindFloat64:
		return j.client.ReadFloat64(addr)
	case KindCoil:
		return j.client.ReadCoil(addr)
	case KindDiscrete:
		return j.client.ReadDiscrete(addr)
	default:
		return nil, errors.New("poller: unknown value kind")
	}
}

func (j *job) poll(ctx context.Context) error {
	healthTicker := time.NewTicker(jobHealthTickInterval)
	defer healthTicker.Stop()
	ticker := time.NewTicker(j.def.Interval)
	defer ticker.Stop()

	const maxConsecutiveErr = 5
	consecutiveErr := 0
	for {
		select {
		case <-ticker.C:
			start := j.timeNow()
			value, err := j.readOnce()

			if err != nil && j.onReadErrorFunc != nil {
				err = j.onReadErrorFunc(j.def.Name, err)
				if err == nil {
					continue
				}
			}

			if err != nil {
				consecutiveErr++
				j.stats.IncReadErrCount()

				var perr *modbus.ProtocolError
				if errors.As(err, &perr) && perr.Kind == modbus.KindModbusException {
					j.stats.IncModbusExceptionCount()
				}

				j.logger.Error("read failed",
					"job", j.def.Name,
					"address", j.def.Address,
					"err", err,
					"err_count", consecutiveErr,
				)

				if consecutiveErr >= maxConsecutiveErr {
					return err
				}
				continue
			}
			consecutiveErr = 0
			j.stats.IncReadOKCount()

			result := Result{Name: j.def.Name, Time: start, Value: value}
			select {
			case j.resultsChan <- result:
			default:
				j.stats.IncSendSkipCount()
				j.logger.Warn("skipped result send, channel full",
					"job", j.def.Name,
				)
			}
		case <-healthTicker.C:
			j.logger.Debug("job health tick", "job", j.def.Name, "stats", j.stats.Stats())
		case <-ctx.Done():
			j.logger.Info("job done", "job", j.def.Name)
			return ctx.Err()
		}
	}
}

// JobStatistics holds running counters for one Job, identified by Name.
type JobStatistics struct {
	Name    string
	Address string

	StartCount     uint64
	ReadOKCount    uint64
	ReadErrCount   uint64
	ModbusErrCount uint64
	SendSkipCount  uint64
}

type jobStatistics struct {
	lock  sync.RWMutex
	stats JobStatistics
}

func (j *jobStatistics) IncStartCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.StartCount++
}

func (j *jobStatistics) IncReadOKCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.ReadOKCount++
}

func (j *jobStatistics) IncReadErrCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.ReadErrCount++
}

func (j *jobStatistics) IncModbusExceptionCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.ModbusErrCount++
}

func (j *jobStatistics) IncSendSkipCount() {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.stats.SendSkipCount++
}

func (j *jobStatistics) Stats() JobStatistics {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.stats
}
