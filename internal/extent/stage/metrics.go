package stage

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricSet - счетчики обращений к цепочке
type MetricSet struct {
	Reads   *prometheus.CounterVec
	Writes  *prometheus.CounterVec
	Commits prometheus.Counter
}

// NewMetricSet создаёт счетчики и регистрирует их в reg
func NewMetricSet(reg prometheus.Registerer) *MetricSet {
	m := &MetricSet{
		Reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxedit",
			Subsystem: "extent",
			Name:      "reads_total",
			Help:      "Чтения блоков по виду (block, lazy).",
		}, []string{"kind"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxedit",
			Subsystem: "extent",
			Name:      "writes_total",
			Help:      "Записи блоков по результату (changed, unchanged, error).",
		}, []string{"result"}),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxedit",
			Subsystem: "extent",
			Name:      "commits_total",
			Help:      "Вызовы Commit.",
		}),
	}
	reg.MustRegister(m.Reads, m.Writes, m.Commits)
	return m
}

// Metrics считает чтения, записи и вызовы Commit
type Metrics struct {
	*extent.Delegate
	set *MetricSet
}

// NewMetrics создаёт ступень учета
func NewMetrics(inner extent.Extent, set *MetricSet) *Metrics {
	m := &Metrics{set: set}
	m.Delegate = extent.NewDelegate(inner, extent.WithCommitBefore(m.countCommit))
	return m
}

func (m *Metrics) Block(pos vec.Vec3) block.Block {
	m.set.Reads.WithLabelValues("block").Inc()
	return m.Delegate.Block(pos)
}

func (m *Metrics) LazyBlock(pos vec.Vec3) block.Block {
	m.set.Reads.WithLabelValues("lazy").Inc()
	return m.Delegate.LazyBlock(pos)
}

func (m *Metrics) SetBlock(pos vec.Vec3, b block.Block) (bool, error) {
	changed, err := m.Delegate.SetBlock(pos, b)
	switch {
	case err != nil:
		m.set.Writes.WithLabelValues("error").Inc()
	case changed:
		m.set.Writes.WithLabelValues("changed").Inc()
	default:
		m.set.Writes.WithLabelValues("unchanged").Inc()
	}
	return changed, err
}

// countCommit своей работы не добавляет
func (m *Metrics) countCommit() operation.Operation {
	m.set.Commits.Inc()
	return nil
}
