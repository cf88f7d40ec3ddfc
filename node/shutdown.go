package node

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

type StopFunc func(context.Context) error

type ShutdownHandler struct {
	Component string
	StopFunc  StopFunc
}

// MonitorShutdown manages shutdown requests arriving either on triggerCh
// (the api Shutdown call) or as SIGTERM/SIGINT. It returns a channel closed
// when every handler has stopped.
func MonitorShutdown(triggerCh <-chan struct{}, handlers ...ShutdownHandler) <-chan struct{} {
	sigCh := make(chan os.Signal, 2)
	out := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			log.Warnf("received shutdown signal: %v", sig)
		case <-triggerCh:
			log.Warn("received shutdown request")
		}

		log.Warn("Shutting down...")
		for _, h := range handlers {
			if err := h.StopFunc(context.TODO()); err != nil {
				log.Errorf("shutting down %s failed: %s", h.Component, err)
				continue
			}
			log.Infof("%s shut down successfully", h.Component)
		}
		log.Warn("Graceful shutdown successful")

		close(out)
	}()

	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	return out
}
