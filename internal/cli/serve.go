// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alvinbaena/pass-audit/internal/api"
	"github.com/alvinbaena/pass-audit/internal/config"
	"github.com/alvinbaena/pass-audit/internal/util"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/likexian/selfca"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serveCmd = &cobra.Command{
		Use:          "serve",
		Short:        "Serve the API for checking passwords and auditing the password store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCommand(cmd)
		},
	}
)

func init() {
	serveCmd.Flags().BoolVar(&selfTLS, "self-tls", false,
		"If the server should use a self-signed certificate when starting. The certificate is renewed on each server restart")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to the PEM encoded TLS certificate to be used by the server")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to the PEM encoded TLS private key to be used by the server")
	serveCmd.Flags().StringVar(&host, "host", "localhost", "Address the server listens on (default from PASS_AUDIT_HOST)")
	serveCmd.Flags().Uint16VarP(&port, "port", "p", 3100, "Port to be used by the server (default from PASS_AUDIT_PORT)")

	rootCmd.AddCommand(serveCmd)
}

func loadServerConfig(cmd *cobra.Command) (config.ServerConfig, error) {
	srvCfg, err := config.LoadServer(configFile)
	if err != nil && !errors.Is(err, config.ErrInvalid) {
		return srvCfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		srvCfg.Host = host
	}
	if flags.Changed("port") {
		srvCfg.Port = port
	}
	if flags.Changed("self-tls") {
		srvCfg.SelfTLS = selfTLS
	}
	if flags.Changed("tls-cert") {
		srvCfg.TLSCert = tlsCert
	}
	if flags.Changed("tls-key") {
		srvCfg.TLSKey = tlsKey
	}

	if err = srvCfg.Validate(); err != nil {
		return srvCfg, fmt.Errorf("server requires TLS configuration to start. "+
			"Please use either the --self-tls flag or set a certificate with the --tls-cert and --tls-key flags: %w", err)
	}
	return srvCfg, nil
}

func serveCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbosity, quiet, profile, pprofPort)
	if verbosity == 0 {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	srvCfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.SetLogger(logger.WithLogger(func(c *gin.Context, z zerolog.Logger) zerolog.Logger {
		return zerolog.New(gin.DefaultWriter).With().Timestamp().Logger()
	})))

	v1 := router.Group("/v1")

	oracle := newOracle(cfg)
	api.RegisterQueryApi(v1.Group("/check"), oracle, newEstimator(cfg))

	ps := newStore(cfg)
	if srvCfg.APIToken == "" {
		log.Info().Msg("PASS_AUDIT_API_TOKEN is not set, the audit API is disabled")
	} else if err = ps.Check(cmd.Context()); err != nil {
		log.Warn().Err(err).Msgf("password store %s cannot be audited, the audit API is disabled", ps.Dir())
	} else {
		api.RegisterAuditApi(v1, ps, newAuditor(cfg, oracle), cfg.IgnoreFile, srvCfg.APIToken)
	}

	srvAddr := net.JoinHostPort(srvCfg.Host, strconv.Itoa(int(srvCfg.Port)))
	srv := &http.Server{
		Addr:              srvAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("starting TLS Server on address: %s", srvAddr)
		errs <- listen(srv, srvCfg)
	}()

	return gracefulShutdown(cmd.Context(), srv, errs)
}

func listen(srv *http.Server, srvCfg config.ServerConfig) error {
	if srvCfg.TLSCert != "" && srvCfg.TLSKey != "" {
		// service connections with tls certs
		return srv.ListenAndServeTLS(srvCfg.TLSCert, srvCfg.TLSKey)
	}

	log.Warn().Msgf("using auto self-signed certificate for TLS. This is not recommended for production. Please consider using your own certificates.")
	pair, err := selfSignedPair()
	if err != nil {
		return err
	}

	srv.TLSConfig = &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}

	// service connections with tls config, no need to pass files
	return srv.ListenAndServeTLS("", "")
}

func selfSignedPair() (tls.Certificate, error) {
	caConfig := selfca.Certificate{
		IsCA:      true,
		KeySize:   2048,
		NotBefore: time.Now(),
		// 30 day self-signed cert.
		NotAfter: time.Now().Add(time.Duration(30*24) * time.Hour),
	}

	// generating the certificate
	certificate, key, err := selfca.GenerateCertificate(caConfig)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("error generating auto self-signed certificate: %w", err)
	}

	pair, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("error using auto self-signed certificate: %w", err)
	}
	return pair, nil
}

// gracefulShutdown waits for the command context to be canceled by SIGINT or
// SIGTERM, or for the server to fail.
func gracefulShutdown(ctx context.Context, srv *http.Server, errs <-chan error) error {
	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server Shutdown.")
	}
	log.Info().Msg("server exiting...")
	return nil
}
