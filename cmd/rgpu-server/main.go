// Package main is the RGPU server entry point: it exposes a pool of
// simulated GPUs (the Software driver backend) to authenticated clients over TCP+TLS
// or QUIC. Ported from rgpu-cli's "server" subcommand, split into its
// own binary the way this repo keeps one cmd/ directory per process.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rgpu/rgpu/pkg/config"
	"github.com/rgpu/rgpu/pkg/driver"
	"github.com/rgpu/rgpu/pkg/rgpuauth"
	"github.com/rgpu/rgpu/pkg/server/dispatch"
	"github.com/rgpu/rgpu/pkg/server/handler"
	"github.com/rgpu/rgpu/pkg/transport"
	"github.com/rgpu/rgpu/pkg/transport/quictransport"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rgpu-server",
		Short: "RGPU server -- exposes local GPUs to remote clients",
		Long: `rgpu-server shares the GPUs attached to this machine with remote
rgpu-daemon clients over an authenticated, encrypted transport.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rgpu-server v%s\n", version)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the RGPU server",
		RunE:  runServe,
	}
	serveCmd.Flags().Uint16("port", 0, "Listen port (overrides config)")
	serveCmd.Flags().String("bind", "", "Bind address (overrides config)")
	serveCmd.Flags().String("cert", "", "TLS certificate path (overrides config)")
	serveCmd.Flags().String("key", "", "TLS private key path (overrides config)")
	serveCmd.Flags().String("config", "", "Path to rgpu.toml (defaults to the platform config path)")
	serveCmd.Flags().String("pid-file", "", "Write the process id to this file")
	serveCmd.Flags().Int("gpus", 1, "Number of simulated GPUs to expose (software driver)")
	rootCmd.AddCommand(serveCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a random client token",
		RunE:  runToken,
	}
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultRgpuConfigPath()
	}
	cfg := config.LoadRgpuConfigOrDefault(configPath)

	if port, _ := cmd.Flags().GetUint16("port"); port != 0 {
		cfg.Server.Port = port
	}
	if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
		cfg.Server.Bind = bind
	}
	if cert, _ := cmd.Flags().GetString("cert"); cert != "" {
		cfg.Server.CertPath = cert
	}
	if key, _ := cmd.Flags().GetString("key"); key != "" {
		cfg.Server.KeyPath = key
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if pidFile, _ := cmd.Flags().GetString("pid-file"); pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("writing pid file: %w", err)
		}
		defer os.Remove(pidFile)
	}

	numGpus, _ := cmd.Flags().GetInt("gpus")
	cudaDriver := driver.NewSoftware(numGpus)
	vulkanDriver := cudaDriver.AsVulkanDriver()
	gpus := dispatch.DiscoverGpus(cfg.Server.ServerID, cudaDriver, vulkanDriver)

	tokens := make([]string, 0, len(cfg.Security.Tokens))
	for _, t := range cfg.Security.Tokens {
		tokens = append(tokens, t.Token)
	}
	auth := rgpuauth.NewAuthenticator(tokens)
	auth.SetAuditLogger(func(ev rgpuauth.AuditEvent) {
		log.Printf("rgpu-server: auth attempt peer=%q success=%v reason=%q", ev.PeerName, ev.Success, ev.Reason)
	})

	hcfg := handler.New(cfg.Server.ServerID, auth, cudaDriver, vulkanDriver, gpus)

	bindAddr := fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port)

	var tlsConfig *tls.Config
	var err error
	if cfg.Server.CertPath != "" && cfg.Server.KeyPath != "" {
		tlsConfig, err = transport.BuildServerTLS(cfg.Server.CertPath, cfg.Server.KeyPath)
		if err != nil {
			return fmt.Errorf("building server TLS config: %w", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Server.Transport == "quic" {
		return serveQuic(bindAddr, tlsConfig, hcfg, sigChan)
	}
	return serveTcp(bindAddr, tlsConfig, hcfg, sigChan)
}

func serveTcp(bindAddr string, tlsConfig *tls.Config, hcfg *handler.Config, sigChan chan os.Signal) error {
	var ln net.Listener
	var err error
	if tlsConfig != nil {
		ln, err = transport.ListenTCP(bindAddr, tlsConfig)
	} else {
		ln, err = net.Listen("tcp", bindAddr)
	}
	if err != nil {
		return fmt.Errorf("listening on %s: %w", bindAddr, err)
	}
	log.Printf("rgpu-server: listening on %s (tcp)", bindAddr)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				tcpConn.SetNoDelay(true)
			}
			go hcfg.HandleConnection(conn)
		}
	}()

	<-sigChan
	log.Println("rgpu-server: shutting down")
	return ln.Close()
}

func serveQuic(bindAddr string, tlsConfig *tls.Config, hcfg *handler.Config, sigChan chan os.Signal) error {
	if tlsConfig == nil {
		return fmt.Errorf("quic transport requires --cert/--key")
	}
	ln, err := quictransport.ListenServer(bindAddr, tlsConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				return
			}
			go func() {
				sessConn, err := quictransport.AcceptSession(ctx, conn)
				if err != nil {
					log.Printf("rgpu-server: quic session stream: %v", err)
					return
				}
				hcfg.HandleConnection(sessConn)
			}()
		}
	}()

	<-sigChan
	log.Println("rgpu-server: shutting down")
	cancel()
	return ln.Close()
}

func runToken(cmd *cobra.Command, args []string) error {
	token, err := rgpuauth.GenerateToken(32)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
