package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aurora-obs/aurora-core/internal/device"
	"github.com/aurora-obs/aurora-core/internal/indi"
	"github.com/aurora-obs/aurora-core/internal/indiserver"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/config"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/logging"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/mqtt"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/tsdb"
	"github.com/aurora-obs/aurora-core/internal/journal"
)

// journalWriteTimeout bounds a single journal insert from the note listener.
const journalWriteTimeout = 5 * time.Second

// runDaemon is the actual application logic, separated from the command
// definition for testability. Returning an error allows main to handle
// exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runDaemon(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Aurora Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the notification journal (optional)
	var notesJournal *journal.Journal
	if cfg.Journal.Enabled {
		notesJournal, err = journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := notesJournal.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		log.Info("journal opened", "path", cfg.Journal.Path)
	} else {
		log.Info("journal disabled")
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var recorder *tsdb.Client
	if cfg.InfluxDB.Enabled {
		recorder, err = tsdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		recorder.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Launch the managed indiserver (optional). It listens on the same
	// port the client dials, so server config stays in one place.
	if cfg.IndiServer.Enabled {
		serverMgr, mgrErr := indiserver.NewManager(indiserver.Config{
			Binary:             cfg.IndiServer.Binary,
			Port:               cfg.Server.Port,
			Drivers:            cfg.IndiServer.Drivers,
			Verbosity:          cfg.IndiServer.Verbosity,
			FIFOPath:           cfg.IndiServer.FIFOPath,
			MaxClients:         cfg.IndiServer.MaxClients,
			RestartDelay:       time.Duration(cfg.IndiServer.RestartDelay) * time.Second,
			MaxRestartAttempts: cfg.IndiServer.MaxRestartAttempts,
		})
		if mgrErr != nil {
			return fmt.Errorf("configuring indiserver: %w", mgrErr)
		}
		serverMgr.SetLogger(log.With("component", "indiserver"))
		if err := serverMgr.Start(ctx); err != nil {
			return fmt.Errorf("starting indiserver: %w", err)
		}
		defer func() {
			log.Info("stopping indiserver")
			if stopErr := serverMgr.Stop(); stopErr != nil {
				log.Error("error stopping indiserver", "error", stopErr)
			}
		}()
		log.Info("indiserver running",
			"port", cfg.Server.Port,
			"drivers", cfg.IndiServer.Drivers,
		)
	}

	// Create the INDI client
	indiClient := indi.New(indi.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ConnectTimeout:    cfg.GetConnectTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		ReconnectInterval: cfg.GetReconnectInterval(),
	})
	indiClient.SetLogger(log.With("component", "indi"))

	// Wire notifications: bus, journal and recorder all observe notes.
	bus := &busAdapter{client: mqttClient}
	qos := byte(cfg.MQTT.QoS) // #nosec G115 -- validated to 0..2
	busSync := device.NewBusSync(bus, qos)
	busSync.SetLogger(log.With("component", "sync"))

	noteListener := indiClient.AddMessageListener(func(note indi.Notification) {
		busSync.PublishNotification(note)
		if notesJournal != nil {
			jctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
			if appendErr := notesJournal.Append(jctx, note); appendErr != nil {
				log.Error("journalling notification", "error", appendErr)
			}
			cancel()
		}
		if recorder != nil {
			recorder.RecordNotification(note.Device, note.Message)
		}
	})
	defer indiClient.RemoveMessageListener(noteListener)

	// Record server link transitions (if recording is enabled)
	if recorder != nil {
		linkWatch := newLinkWatcher(indiClient, recorder)
		linkID := indiClient.AddListener(linkWatch.check)
		defer indiClient.RemoveListener(linkID)
	}

	// Start the state synchroniser
	var target device.Synchronizer = busSync
	if recorder != nil {
		target = &recordingSynchronizer{next: busSync, recorder: recorder}
	}
	syncer := device.NewSyncer(indiClient, target)
	syncer.SetLogger(log.With("component", "sync"))
	syncer.Start()
	defer func() {
		log.Info("stopping state synchroniser")
		syncer.Stop()
	}()

	// Start the command bridge
	controller := device.NewController(indiClient)
	controller.SetLogger(log.With("component", "controller"))
	bridge := device.NewBridge(bus, controller, qos)
	bridge.SetLogger(log.With("component", "bridge"))
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("starting command bridge: %w", err)
	}
	defer func() {
		log.Info("stopping command bridge")
		bridge.Stop()
	}()

	// Start the INDI client last: the projection pipeline is ready, so the
	// initial burst of definitions flows straight through.
	indiClient.Start()
	defer func() {
		log.Info("closing INDI client")
		if closeErr := indiClient.Close(); closeErr != nil {
			log.Error("error closing INDI client", "error", closeErr)
		}
	}()
	log.Info("INDI client started",
		"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, notesJournal, recorder); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. INDI client
	// 2. Command bridge and state synchroniser
	// 3. Managed indiserver (if enabled)
	// 4. InfluxDB (if enabled)
	// 5. MQTT
	// 6. Journal (if enabled)

	log.Info("Aurora Core stopped")
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - notesJournal: Journal to check (may be nil if disabled)
//   - recorder: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, notesJournal *journal.Journal, recorder *tsdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if notesJournal != nil {
		if err := notesJournal.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	if recorder != nil {
		if err := recorder.HealthCheck(ctx); err != nil {
			return fmt.Errorf("tsdb: %w", err)
		}
	}

	// INDI server health is managed by the client's reconnect supervisor;
	// an unreachable server is an operational state, not a startup failure.

	return nil
}

// busAdapter adapts the infrastructure MQTT client to the device package's
// Bus interface. The primary difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - Device package expects: func(topic, payload []byte)
type busAdapter struct {
	client *mqtt.Client
}

// Publish implements device.Bus.
func (a *busAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements device.Bus.
func (a *busAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (device handlers don't return errors)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements device.Bus.
func (a *busAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// recordingSynchronizer tees vector updates into the time-series recorder
// before forwarding them to the bus synchroniser.
type recordingSynchronizer struct {
	next     device.Synchronizer
	recorder *tsdb.Client
}

func (r *recordingSynchronizer) SyncDeviceList(devices []string) {
	r.next.SyncDeviceList(devices)
}

func (r *recordingSynchronizer) SyncVector(dev, vector string, snap indi.VectorSnapshot) {
	r.recorder.RecordVectorState(dev, vector, string(snap.State), snap.Revision)
	r.next.SyncVector(dev, vector, snap)
}

func (r *recordingSynchronizer) RemoveVector(dev, vector string) {
	r.next.RemoveVector(dev, vector)
}

func (r *recordingSynchronizer) SyncDriverGroups(groups map[string]string) {
	r.next.SyncDriverGroups(groups)
}

// linkWatcher records server link transitions. The tree listener fires on
// every mutation and from multiple goroutines; only edges are recorded.
type linkWatcher struct {
	client   *indi.Client
	recorder *tsdb.Client
	last     atomic.Bool
}

func newLinkWatcher(client *indi.Client, recorder *tsdb.Client) *linkWatcher {
	return &linkWatcher{client: client, recorder: recorder}
}

func (w *linkWatcher) check() {
	connected := w.client.IsConnected()
	if w.last.CompareAndSwap(!connected, connected) {
		w.recorder.RecordServerConnection(connected)
	}
}
