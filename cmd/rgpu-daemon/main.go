// Package main is the RGPU client daemon entry point: it connects to
// every configured remote server, builds a unified GPU pool, and serves
// the local IPC socket the CUDA interpose shim and Vulkan ICD dial into.
// Ported from rgpu-cli's "client" subcommand.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rgpu/rgpu/pkg/config"
	"github.com/rgpu/rgpu/pkg/daemon/batcher"
	daemonclient "github.com/rgpu/rgpu/pkg/daemon/client"
	"github.com/rgpu/rgpu/pkg/daemon/ipc"
	"github.com/rgpu/rgpu/pkg/daemon/pool"
	"github.com/rgpu/rgpu/pkg/protocol"
	"github.com/rgpu/rgpu/pkg/rgpuauth"
	"github.com/rgpu/rgpu/pkg/transport"
)

var version = "0.1.0"

const defaultSocketPath = "/tmp/rgpu-daemon.sock"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rgpu-daemon",
		Short: "RGPU client daemon -- pools local and remote GPUs for intercepted CUDA/Vulkan calls",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rgpu-daemon v%s\n", version)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the client daemon",
		RunE:  runDaemon,
	}
	runCmd.Flags().String("config", "", "Path to rgpu.toml (defaults to the platform config path)")
	runCmd.Flags().String("socket", defaultSocketPath, "Local IPC socket path the interpose shim connects to")
	runCmd.Flags().String("pid-file", "", "Write the process id to this file")
	runCmd.Flags().Bool("insecure", false, "Skip TLS certificate verification (development only)")
	rootCmd.AddCommand(runCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a random server token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := rgpuauth.GenerateToken(32)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultRgpuConfigPath()
	}
	cfg := config.LoadRgpuConfigOrDefault(configPath)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	socketPath, _ := cmd.Flags().GetString("socket")
	insecure, _ := cmd.Flags().GetBool("insecure")

	if pidFile, _ := cmd.Flags().GetString("pid-file"); pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("writing pid file: %w", err)
		}
		defer os.Remove(pidFile)
	}

	ordering := parseOrdering(cfg.Client.GpuOrdering)
	mgr := pool.New(ordering)
	batchers := make(map[int]*batcher.Batcher)

	for _, endpoint := range cfg.Client.Servers {
		sess, err := dialServer(endpoint, insecure)
		if err != nil {
			log.Printf("rgpu-daemon: skipping %s: %v", endpoint.Address, err)
			continue
		}

		idx := mgr.AddServer(&pool.ServerConnection{
			Endpoint: endpoint.Address,
			ServerID: sess.ServerID,
			Gpus:     sess.Gpus,
			Status:   pool.StatusConnected,
		})
		if err := mgr.AddServerMapping(idx, sess.Gpus, false); err != nil {
			log.Printf("rgpu-daemon: mapping gpus for %s: %v", endpoint.Address, err)
			continue
		}
		batchers[idx] = batcher.New(daemonclient.Transport{Session: sess}, batcher.DefaultCapacity)
		log.Printf("rgpu-daemon: connected to %s, %d GPU(s)", endpoint.Address, len(sess.Gpus))
	}

	if mgr.ServerCount() == 0 {
		log.Println("rgpu-daemon: no remote servers connected; serving an empty GPU pool")
	}

	handler := func(msg *protocol.Message) *protocol.Message {
		return dispatchLocal(mgr, batchers, msg)
	}

	listener := ipc.New(socketPath, handler)
	go func() {
		if err := listener.Serve(); err != nil {
			log.Printf("rgpu-daemon: ipc listener stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("rgpu-daemon: shutting down")
	return listener.Close()
}

// dispatchLocal routes one command from the interpose shim to the pool's
// default server, the simplest of the ordering policies' selection
// rules: later work can extend this to honor a per-command target GPU
// once the shim threads pool indices through its handle store. Only
// CudaCommand and CudaBatch messages are routed; any other tag,
// VulkanCommand included, is answered with an UnsupportedCommand error.
func dispatchLocal(mgr *pool.GpuPoolManager, batchers map[int]*batcher.Batcher, msg *protocol.Message) *protocol.Message {
	idx, err := mgr.DefaultServerIndex()
	if err != nil {
		return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewDisconnected()}
	}
	b, ok := batchers[idx]
	if !ok {
		return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewDisconnected()}
	}

	switch msg.Tag {
	case protocol.MsgTagCudaCommand:
		resp, err := b.Send(*msg.CudaCmd)
		if err != nil {
			return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewGpuError(0, err.Error())}
		}
		return &protocol.Message{Tag: protocol.MsgTagCudaResponse, RequestID: msg.RequestID, CudaResp: resp}

	case protocol.MsgTagCudaBatch:
		for i := range msg.Batch {
			if _, err := b.Send(msg.Batch[i]); err != nil {
				return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewGpuError(0, err.Error())}
			}
		}
		if err := b.Flush(); err != nil {
			return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewGpuError(0, err.Error())}
		}
		return &protocol.Message{Tag: protocol.MsgTagCudaResponse, RequestID: msg.RequestID, CudaResp: &protocol.CudaResponse{Tag: protocol.CudaRespSuccess}}

	default:
		return &protocol.Message{Tag: protocol.MsgTagError, RequestID: msg.RequestID, Err: protocol.NewUnsupportedCommand(fmt.Sprintf("tag %d", msg.Tag))}
	}
}

func dialServer(endpoint config.RgpuServerEndpoint, insecure bool) (*daemonclient.Session, error) {
	var tlsConfig = transport.BuildInsecureClientTLS()
	if !insecure {
		built, err := transport.BuildClientTLS(endpoint.CaCert)
		if err != nil {
			return nil, err
		}
		tlsConfig = built
	}

	rawConn, err := transport.DialTCP(endpoint.Address, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint.Address, err)
	}

	conn := transport.New(transport.RoleClient, rawConn)
	sess, err := daemonclient.Handshake(conn, endpoint.Token)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return sess, nil
}

func parseOrdering(s string) pool.Ordering {
	switch s {
	case "remote_first":
		return pool.RemoteFirst
	case "by_capability":
		return pool.ByCapability
	default:
		return pool.LocalFirst
	}
}
