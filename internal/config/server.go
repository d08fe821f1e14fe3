package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Port is the HTTP listen port.
func Port() string {
	return GetEnv("PORT", "8080")
}

// DBPath is the sqlite database file for users.
func DBPath() string {
	return GetEnv("DB_PATH", "otpgate.db")
}

// CORSAllowedOrigins lists the front-end origins allowed to call the API.
func CORSAllowedOrigins() []string {
	raw := GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// APIURL is the base URL the terminal driver talks to.
func APIURL() string {
	return GetEnv("OTPGATE_API_URL", "http://localhost:8080")
}

// HTTPTimeouts are the server's connection deadlines.
type HTTPTimeouts struct {
	Read       time.Duration
	ReadHeader time.Duration
	Write      time.Duration
	Idle       time.Duration
}

func ServerTimeouts() HTTPTimeouts {
	return HTTPTimeouts{
		Read:       MustParseDuration("SERVER_READ_TIMEOUT", "10s"),
		ReadHeader: MustParseDuration("SERVER_READ_HEADER_TIMEOUT", "5s"),
		Write:      MustParseDuration("SERVER_WRITE_TIMEOUT", "15s"),
		Idle:       MustParseDuration("SERVER_IDLE_TIMEOUT", "60s"),
	}
}

// MaxRequestBodyBytes caps JSON request bodies. Accepts plain bytes or a
// KB/MB/GB suffix, e.g. "512KB".
func MaxRequestBodyBytes() int64 {
	n, err := parseBytes(GetEnv("MAX_REQUEST_BODY_BYTES", "1MB"))
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// Worker pool sizes.
func DBWorkerCount() int   { return positiveInt("DB_WORKER_COUNT", 4) }
func HashWorkerCount() int { return positiveInt("HASH_WORKER_COUNT", 4) }
func MailWorkerCount() int { return positiveInt("MAIL_WORKER_COUNT", 2) }
func WorkerQueueSize() int { return positiveInt("WORKER_QUEUE_SIZE", 1024) }

var byteUnits = []struct {
	suffix string
	mult   float64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

var errBadSize = errors.New("config: bad size")

func parseBytes(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := 1.0
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
			break
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, errBadSize
	}
	return int64(n * mult), nil
}
