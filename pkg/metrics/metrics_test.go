package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("cli"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithRegistry(registry),
			)

			Convey("Then it uses the given registry and names", func() {
				So(m.Registry() == registry, ShouldBeTrue)
				m.RecordRecordsRead("group", 3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldEqual, 1)
				So(families[0].GetName(), ShouldEqual, "test_cli_records_read_total")
			})
		})

		Convey("When no registry is given", func() {
			a, b := NewManager(), NewManager()

			Convey("Then each manager gets its own", func() {
				So(a.Registry() != b.Registry(), ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager", t, func() {
		m := NewManager()

		Convey("When recording a run", func() {
			m.RecordRecordsRead("preceding", 10)
			m.RecordDropped("preceding", ReasonMissingScore, 2)
			m.RecordDropped("preceding", ReasonMissingPredecessor, 0)
			m.SetGrouping("preceding", 8, 5)
			m.RecordOutput("preceding", "table")
			m.ObserveRunDuration("preceding", 250*time.Millisecond)

			Convey("Then the values are exposed", func() {
				reg := m.Registry()
				So(value(reg, "setlist_run_records_read_total", "command", "preceding"), ShouldEqual, 10.0)
				So(value(reg, "setlist_run_records_dropped_total", "reason", ReasonMissingScore), ShouldEqual, 2.0)
				So(series(reg, "setlist_run_records_dropped_total"), ShouldEqual, 1)
				So(value(reg, "setlist_run_groups", "command", "preceding"), ShouldEqual, 5.0)
				So(value(reg, "setlist_run_identifiers", "command", "preceding"), ShouldEqual, 8.0)
				So(value(reg, "setlist_run_outputs_written_total", "kind", "table"), ShouldEqual, 1.0)
				So(value(reg, "setlist_run_duration_seconds", "command", "preceding"), ShouldEqual, 1.0)
			})
		})

		Convey("When metrics are disabled", func() {
			off := NewManager(WithMetricsEnabled(false))
			off.RecordRecordsRead("group", 5)

			Convey("Then nothing is recorded", func() {
				So(series(off.Registry(), "setlist_run_records_read_total"), ShouldEqual, 0)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given recorded metrics", t, func() {
		m := NewManager()
		m.RecordRecordsRead("cooccur", 4)
		path := filepath.Join(t.TempDir(), "textfile", "setlist.prom")

		Convey("When writing the textfile", func() {
			err := m.WriteTextfile(path)

			Convey("Then the exposition format is on disk", func() {
				So(err, ShouldBeNil)
				b, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(b), `setlist_run_records_read_total{command="cooccur"} 4`), ShouldBeTrue)
			})
		})

		Convey("When no path is given", func() {
			So(m.WriteTextfile(""), ShouldEqual, ErrNoPath)
		})
	})
}

func TestGlobalManager(t *testing.T) {
	Convey("Given a replaced global manager", t, func() {
		prev := Global()
		m := NewManager()
		SetGlobal(m)
		defer SetGlobal(prev)

		RecordRecordsRead("group", 2)
		RecordDropped("group", ReasonBadTime, 1)
		SetGrouping("group", 3, 2)
		RecordOutput("group", "series")
		ObserveRunDuration("group", time.Second)

		So(value(m.Registry(), "setlist_run_records_read_total", "command", "group"), ShouldEqual, 2.0)
		So(value(m.Registry(), "setlist_run_records_dropped_total", "reason", ReasonBadTime), ShouldEqual, 1.0)
	})
}

// value returns the counter or gauge value (or histogram sample count) of the
// first series of name carrying the label pair, or -1 when there is none.
func value(reg *prometheus.Registry, name, label, want string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() != label || lp.GetValue() != want {
					continue
				}
				switch {
				case m.GetCounter() != nil:
					return m.GetCounter().GetValue()
				case m.GetGauge() != nil:
					return m.GetGauge().GetValue()
				case m.GetHistogram() != nil:
					return float64(m.GetHistogram().GetSampleCount())
				}
			}
		}
	}
	return -1
}

// series counts the label combinations exposed under name.
func series(reg *prometheus.Registry, name string) int {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return len(fam.GetMetric())
		}
	}
	return 0
}
