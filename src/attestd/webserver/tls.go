package webserver

import (
	"crypto/tls"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TLSReloader serves the current certificate pair and picks up renewals from disk.
type TLSReloader struct {
	certFile    string
	keyFile     string
	cert        *tls.Certificate
	mu          sync.RWMutex
	lastModCert time.Time
	lastModKey  time.Time
	logger      zerolog.Logger
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewTLSReloader(certFile, keyFile string, interval time.Duration, logger zerolog.Logger) (*TLSReloader, error) {
	r := &TLSReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger.With().Str("component", "tls").Logger(),
		stop:     make(chan struct{}),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go r.watch(interval)
	return r, nil
}

func (r *TLSReloader) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

func (r *TLSReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load tls key pair: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cert = &cert
	if info, err := os.Stat(r.certFile); err == nil {
		r.lastModCert = info.ModTime()
	}
	if info, err := os.Stat(r.keyFile); err == nil {
		r.lastModKey = info.ModTime()
	}
	return nil
}

func (r *TLSReloader) changed() bool {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		r.logger.Warn().Err(err).Msg("stat cert file")
		return false
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		r.logger.Warn().Err(err).Msg("stat key file")
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.lastModCert) || keyInfo.ModTime().After(r.lastModKey)
}

func (r *TLSReloader) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if !r.changed() {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Error().Err(err).Msg("certificate reload failed, keeping previous pair")
				continue
			}
			r.logger.Info().Msg("certificates reloaded")
		}
	}
}

func (r *TLSReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

func (r *TLSReloader) Config() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
