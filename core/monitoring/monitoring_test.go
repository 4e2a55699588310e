package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestCapture(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(NopMonitor{})

	Capture("storage", errors.New("boom"), "driver", "sqlite", "dangling")
	CaptureException(nil, nil)

	assert.Len(t, mon.errs, 1)
	assert.Equal(t, map[string]string{"module": "storage", "driver": "sqlite"}, mon.tags[0])
	assert.Same(t, mon, Current())
}

func TestInitIgnoresNil(t *testing.T) {
	Init(nil)
	assert.Equal(t, NopMonitor{}, Current())
}
