// Command uaserver runs the OPC UA publish/subscribe server core with an
// interactive operator console.
//
// The console plays the part of a connected client: it drives the message
// dispatcher with service requests, writes variable values into the address
// space, and shows the notification messages the publish driver emits.
//
// Usage:
//
//	uaserver [flags]
//
// Flags:
//
//	-config string    Configuration file path (default "uaserver.yaml")
//	-log-file string  Event log path (overrides the config file)
//	-mdns             Advertise the endpoint over mDNS (overrides the config file)
//	-version          Print the version and exit
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/config"
	"github.com/BogdanYarotsky/opcua/pkg/discovery"
	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/server"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
	"github.com/BogdanYarotsky/opcua/pkg/version"
)

func main() {
	var (
		configPath  = flag.String("config", "uaserver.yaml", "configuration file path")
		logFile     = flag.String("log-file", "", "event log path (overrides config)")
		mdns        = flag.Bool("mdns", false, "advertise the endpoint over mDNS (overrides config)")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		stdlog.SetFlags(0)
		stdlog.Println(version.Current)
		return
	}

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *mdns {
		cfg.Discovery.Enabled = true
	}

	logger, closeLogger, err := buildLogger(cfg.Log)
	if err != nil {
		stdlog.Fatalf("Failed to open event log: %v", err)
	}
	defer closeLogger()

	space := buildAddressSpace()
	state := buildServerState(cfg, space)
	state.Logger = logger

	session := server.NewSessionState()
	handler := server.NewMessageHandler(state, session)

	// Address-space writes feed the monitored items directly.
	space.OnValueChange(func(id ua.NodeID, value ua.DataValue) {
		session.SampleValue(id, value)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	console, err := newConsole(handler, session, space)
	if err != nil {
		stdlog.Fatalf("Failed to start console: %v", err)
	}
	stdlog.SetOutput(console.Stdout())

	publisher := server.NewPublisher(state, session, cfg.Subscriptions.TickInterval, console.ShowPublish)
	go publisher.Run(ctx)

	if cfg.Discovery.Enabled {
		advertiser := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		err := advertiser.Advertise(&discovery.EndpointInfo{
			InstanceName: instanceName(cfg),
			Port:         endpointPort(cfg.Server.EndpointURL, cfg.Discovery.Port),
			Path:         "/",
			Capabilities: []string{discovery.CapabilityDataAccess},
		})
		if err != nil {
			stdlog.Printf("Warning: mDNS advertisement failed: %v", err)
		} else {
			defer advertiser.Stop()
			stdlog.Printf("Advertising %s on %s", instanceName(cfg), discovery.ServiceType)
		}
	}

	stdlog.Println(version.BuildInfo(cfg.Server.ApplicationName))
	stdlog.Printf("Endpoint: %s", cfg.Server.EndpointURL)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	console.Run(ctx, cancel)
	stdlog.SetOutput(os.Stderr)
	stdlog.Println("Goodbye!")
}

func buildLogger(cfg config.LogConfig) (log.Logger, func(), error) {
	if cfg.File == "" {
		return log.NoopLogger{}, func() {}, nil
	}
	fileLogger, err := log.NewFileLogger(cfg.File)
	if err != nil {
		return nil, nil, err
	}
	return fileLogger, func() { _ = fileLogger.Close() }, nil
}

func buildServerState(cfg config.Config, space server.AddressSpace) *server.ServerState {
	app := ua.ApplicationDescription{
		ApplicationURI:  cfg.Server.ApplicationURI,
		ApplicationName: cfg.Server.ApplicationName,
	}
	endpoints := []ua.EndpointDescription{{
		EndpointURL:  cfg.Server.EndpointURL,
		Server:       app,
		SecurityMode: ua.MessageSecurityModeNone,
	}}
	limits := server.Limits{
		MaxSubscriptionsPerSession: cfg.Subscriptions.MaxPerSession,
		MinPublishingInterval:      float64(cfg.Subscriptions.MinPublishingInterval.Milliseconds()),
		MaxLifetimeCount:           cfg.Subscriptions.MaxLifetimeCount,
		MaxKeepAliveCount:          cfg.Subscriptions.MaxKeepAliveCount,
		MaxPublishRequests:         cfg.Subscriptions.MaxPublishRequests,
	}
	return server.NewServerState(app, endpoints, space, limits)
}

// buildAddressSpace assembles the demo node tree the console operates on.
func buildAddressSpace() *server.StaticAddressSpace {
	space := server.NewStaticAddressSpace()
	objects := ua.NewNodeID(0, "Objects")
	_ = space.AddNode(server.Node{
		ID:         objects,
		BrowseName: "Objects",
		Class:      ua.NodeClassObject,
	}, server.RootNodeID())

	variables := []struct {
		name  string
		value any
	}{
		{"Temperature", 20.0},
		{"Pressure", 101.3},
		{"Counter", int64(0)},
	}
	for _, v := range variables {
		_ = space.AddNode(server.Node{
			ID:         ua.NewNodeID(2, v.name),
			BrowseName: v.name,
			Class:      ua.NodeClassVariable,
			Value: ua.DataValue{
				Value:           v.value,
				Status:          ua.Good,
				SourceTimestamp: time.Now(),
			},
		}, objects)
	}
	return space
}

func instanceName(cfg config.Config) string {
	if cfg.Discovery.InstanceName != "" {
		return cfg.Discovery.InstanceName
	}
	return cfg.Server.ApplicationName
}

// endpointPort extracts the port from an opc.tcp endpoint URL, falling back
// to the configured discovery port.
func endpointPort(endpointURL string, fallback int) uint16 {
	rest, ok := strings.CutPrefix(endpointURL, "opc.tcp://")
	if !ok {
		return uint16(fallback)
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if port, err := strconv.Atoi(rest[i+1:]); err == nil && port > 0 && port < 65536 {
			return uint16(port)
		}
	}
	return uint16(fallback)
}
