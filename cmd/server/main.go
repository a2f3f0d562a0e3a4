package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/ChordLens/internal/storage"
)

var (
	port           int
	dbPath         string
	tempDir        string
	allowedOrigins string
	logRequests    bool
)

func init() {
	flag.IntVar(&port, "port", 8081, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("CHORDLENS_DB_PATH", storage.DefaultDBFile), "Path to the history database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("CHORDLENS_TEMP_DIR", os.TempDir()), "Directory for uploaded files")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every request")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()

	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer db.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
		LogRequests:    logRequests,
	}

	server := NewServer(db, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
