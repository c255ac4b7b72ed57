package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultRooms is the room catalog used when CHAT_ROOMS is not set.
var DefaultRooms = []string{
	"devops",
	"cloud computing",
	"covid19",
	"sports",
	"nodeJS",
	"computers",
	"gaming",
}

// DefaultHistoryLimit bounds how many recent messages are replayed when a
// connection joins a room or opens a private channel.
const DefaultHistoryLimit = 50

// Config holds all configuration for the application.
type Config struct {
	Addr         string
	DBUrl        string
	DBNs         string
	DBDb         string
	DBUser       string
	DBPass       string
	Rooms        []string
	HistoryLimit int
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:         os.Getenv("APP_ADDR"),
		DBUrl:        os.Getenv("SURREAL_URL"),
		DBUser:       os.Getenv("SURREAL_USER"),
		DBPass:       os.Getenv("SURREAL_PASS"),
		DBNs:         os.Getenv("SURREAL_NS"),
		DBDb:         os.Getenv("SURREAL_DB"),
		Rooms:        parseRooms(os.Getenv("CHAT_ROOMS")),
		HistoryLimit: parseHistoryLimit(os.Getenv("CHAT_HISTORY_LIMIT")),
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}

	return cfg
}

// parseRooms splits a comma-separated room list, trimming whitespace and
// dropping empty entries. Falls back to DefaultRooms.
func parseRooms(raw string) []string {
	if raw == "" {
		return DefaultRooms
	}
	var rooms []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			rooms = append(rooms, name)
		}
	}
	if len(rooms) == 0 {
		return DefaultRooms
	}
	return rooms
}

func parseHistoryLimit(raw string) int {
	if raw == "" {
		return DefaultHistoryLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid CHAT_HISTORY_LIMIT %q", raw)
		return DefaultHistoryLimit
	}
	return n
}
