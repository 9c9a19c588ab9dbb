package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret          string        // Secret key cho JWT
	JWTExpirationHours time.Duration // Thời gian hết hạn của JWT

	SnapshotRetentionDays int    // Số ngày giữ lại snapshot dashboard cũ
	SnapshotEvictionCron  string // Lịch chạy job dọn snapshot (định dạng cron)
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24")) // Mặc định 24 giờ

	retentionDays, _ := strconv.Atoi(getEnv("SNAPSHOT_RETENTION_DAYS", "7"))
	if retentionDays < 1 {
		retentionDays = 1
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),         // << THAY THẾ
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"), // << THAY THẾ
		DBName:     getEnv("DB_NAME", "jaracar_db"),       // << THAY THẾ
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"), // << THAY BẰNG SECRET KEY MẠNH HƠN
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		SnapshotRetentionDays: retentionDays,
		SnapshotEvictionCron:  getEnv("SNAPSHOT_EVICTION_CRON", "0 3 * * *"), // 3 giờ sáng hàng ngày
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
