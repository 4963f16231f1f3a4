package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	maxAlerts           = 200
	pendingBacklogAlert = 25
)

type MonitoringServer struct {
	db         *pgxpool.Pool
	port       int
	alerts     []Alert
	nextID     int
	alertsMux  sync.RWMutex
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Alert
	done       chan struct{}
	closeOnce  sync.Once
	server     *http.Server
}

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

type DashboardStats struct {
	DatabaseStatus    string  `json:"database_status"`
	ActiveConnections int     `json:"active_connections"`
	ResponseTime      int64   `json:"response_time_ms"`
	ActiveAlerts      int     `json:"active_alerts"`
	PendingSplits     int     `json:"pending_splits"`
	FailedSplits      int     `json:"failed_splits"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	DiskPercent       float64 `json:"disk_percent"`
	DBSize            string  `json:"db_size"`
	Uptime            string  `json:"uptime"`
	MemoryUsed        string  `json:"memory_used"`
	MemoryTotal       string  `json:"memory_total"`
	DiskUsed          string  `json:"disk_used"`
	DiskTotal         string  `json:"disk_total"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewMonitoringServer(db *pgxpool.Pool, port int) *MonitoringServer {
	ms := &MonitoringServer{
		db:        db,
		port:      port,
		alerts:    make([]Alert, 0),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Alert, 64),
		done:      make(chan struct{}),
	}
	go ms.handleBroadcast()
	return ms
}

// Router serves stats, alerts, the alert websocket and Prometheus metrics
func (ms *MonitoringServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/alerts", ms.getAlerts).Methods("GET")
	r.HandleFunc("/ws", ms.handleWebSocket)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves the monitoring endpoints and checks health until ctx is done
func (ms *MonitoringServer) Start(ctx context.Context) {
	ms.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", ms.port),
		Handler:           ms.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go ms.monitorHealth(ctx)

	go func() {
		log.Printf("Monitoring server running on %s", ms.server.Addr)
		if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Monitoring] server stopped: %v", err)
		}
	}()
}

// Shutdown stops the HTTP server and the broadcaster
func (ms *MonitoringServer) Shutdown(ctx context.Context) error {
	ms.closeOnce.Do(func() { close(ms.done) })
	if ms.server == nil {
		return nil
	}
	return ms.server.Shutdown(ctx)
}

// RaiseAlert records an alert and pushes it to websocket clients. It never blocks.
func (ms *MonitoringServer) RaiseAlert(level, category, message string) {
	alert := Alert{
		Severity:  level,
		Type:      category,
		Message:   message,
		Timestamp: time.Now(),
	}

	ms.alertsMux.Lock()
	ms.nextID++
	alert.ID = ms.nextID
	ms.alerts = append(ms.alerts, alert)
	if len(ms.alerts) > maxAlerts {
		ms.alerts = append([]Alert(nil), ms.alerts[len(ms.alerts)-maxAlerts:]...)
	}
	ms.alertsMux.Unlock()

	log.Printf("[Alert] %s/%s: %s", level, category, message)

	select {
	case ms.broadcast <- alert:
	default:
		log.Printf("[Monitoring] Broadcast buffer full, alert %d not pushed", alert.ID)
	}
}

// Alerts returns a copy of the recorded alerts, oldest first
func (ms *MonitoringServer) Alerts() []Alert {
	ms.alertsMux.RLock()
	defer ms.alertsMux.RUnlock()
	return append([]Alert(nil), ms.alerts...)
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats(ctx context.Context) DashboardStats {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stats := DashboardStats{DatabaseStatus: "unhealthy"}

	if ms.db != nil {
		start := time.Now()
		err := ms.db.Ping(ctx)
		stats.ResponseTime = time.Since(start).Milliseconds()
		if err == nil {
			stats.DatabaseStatus = "healthy"

			ms.db.QueryRow(ctx, "SELECT count(*) FROM pg_stat_activity").Scan(&stats.ActiveConnections)

			var dbSizeBytes int64
			ms.db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSizeBytes)
			stats.DBSize = formatBytes(uint64(dbSizeBytes))

			var uptimeSec int
			ms.db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec)
			stats.Uptime = formatUptime(uptimeSec)

			ms.db.QueryRow(ctx, `
				SELECT COUNT(*) FILTER (WHERE status = 'pending'),
				       COUNT(*) FILTER (WHERE status = 'failed')
				FROM split_transactions`).Scan(&stats.PendingSplits, &stats.FailedSplits)
		}
	}

	// Host metrics of this pod
	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsed = formatBytes(memStats.Used)
		stats.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
		stats.DiskUsed = formatBytes(diskStats.Used)
		stats.DiskTotal = formatBytes(diskStats.Total)
	}

	ms.alertsMux.RLock()
	for _, alert := range ms.alerts {
		if !alert.Resolved {
			stats.ActiveAlerts++
		}
	}
	ms.alertsMux.RUnlock()

	return stats
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (ms *MonitoringServer) getAlerts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.Alerts())
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *MonitoringServer) clientCount() int {
	ms.clientsMux.Lock()
	defer ms.clientsMux.Unlock()
	return len(ms.clients)
}

func (ms *MonitoringServer) handleBroadcast() {
	for {
		select {
		case <-ms.done:
			return
		case alert := <-ms.broadcast:
			ms.clientsMux.Lock()
			for client := range ms.clients {
				client.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := client.WriteJSON(alert); err != nil {
					client.Close()
					delete(ms.clients, client)
				}
			}
			ms.clientsMux.Unlock()
		}
	}
}

func (ms *MonitoringServer) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := ms.collectStats(ctx)

		if stats.DatabaseStatus == "unhealthy" {
			ms.RaiseAlert("critical", "database_down", "Database is unreachable")
			continue
		}
		if stats.ResponseTime > 1000 {
			ms.RaiseAlert("warning", "high_latency", fmt.Sprintf("Database response time: %dms", stats.ResponseTime))
		}
		if stats.PendingSplits > pendingBacklogAlert {
			ms.RaiseAlert("warning", "gateway", fmt.Sprintf("%d splits waiting for transfer reconciliation", stats.PendingSplits))
		}
	}
}
