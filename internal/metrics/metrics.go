package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/accelara/curlent/internal/downloader"
	"github.com/accelara/curlent/internal/engine"
)

var (
	Phase = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "phase",
		Help:      "1 for the phase the run is in, 0 otherwise.",
	}, []string{"phase"})

	Progress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "progress_ratio",
		Help:      "Fraction of the payload downloaded.",
	})

	DownloadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "download_speed_bytes",
		Help:      "Current download speed in bytes per second.",
	})

	UploadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "upload_speed_bytes",
		Help:      "Current upload speed in bytes per second.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "peers_connected",
		Help:      "Number of active peer connections.",
	})

	DHTNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "dht_nodes",
		Help:      "Number of nodes in the DHT routing table.",
	})

	SeedRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "curlent",
		Name:      "seed_ratio",
		Help:      "Uploaded bytes divided by payload size.",
	})

	StateSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curlent",
		Name:      "state_saves_total",
		Help:      "Session state saves by result.",
	}, []string{"result"})

	TerminationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curlent",
		Name:      "terminations_total",
		Help:      "Finished runs by reason.",
	}, []string{"reason"})
)

var phases = []downloader.Phase{
	downloader.PhaseAwaitingMetadata,
	downloader.PhaseTransferring,
	downloader.PhaseSeeding,
	downloader.PhaseTerminated,
}

// Register adds all collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		Phase,
		Progress,
		DownloadSpeedBytes,
		UploadSpeedBytes,
		PeersConnected,
		DHTNodes,
		SeedRatio,
		StateSavesTotal,
		TerminationsTotal,
	)
}

var _ downloader.Observer = Observer{}

// Observer feeds controller events into the collectors.
type Observer struct{}

func (Observer) PhaseChanged(from, to downloader.Phase) {
	for _, p := range phases {
		v := 0.0
		if p == to {
			v = 1
		}
		Phase.WithLabelValues(p.String()).Set(v)
	}
}

func (Observer) StatusObserved(st engine.TransferStatus, ratio float64) {
	Progress.Set(st.Progress)
	DownloadSpeedBytes.Set(float64(st.DownloadRate))
	UploadSpeedBytes.Set(float64(st.UploadRate))
	PeersConnected.Set(float64(st.Peers))
	DHTNodes.Set(float64(st.DHTNodes))
	SeedRatio.Set(ratio)
}

func (Observer) StateSaved(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StateSavesTotal.WithLabelValues(result).Inc()
}

func (Observer) Terminated(reason downloader.Reason) {
	TerminationsTotal.WithLabelValues(reason.String()).Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Serve",
		"addr":     addr,
	}).Info("Metrics server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
