package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Booking  BookingConfig
	Payment  PaymentConfig
	Sweep    SweepConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BookingConfig struct {
	ServiceFeeRate    float64
	CleaningFee       int64
	Currency          string
	TxRetries         int
	CalendarMaxMonths int
}

type PaymentConfig struct {
	Provider   string
	Cooldown   time.Duration
	AutoSettle bool
}

type SweepConfig struct {
	CompleteSpec      string
	ExpireSpec        string
	PendingPaymentTTL time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "rental-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOOKING_SERVICE_FEE_RATE", 0.12)
	viper.SetDefault("BOOKING_CLEANING_FEE", 0)
	viper.SetDefault("BOOKING_CURRENCY", "INR")
	viper.SetDefault("BOOKING_TX_RETRIES", 3)
	viper.SetDefault("CALENDAR_MAX_MONTHS", 12)
	viper.SetDefault("PAYMENT_PROVIDER", "sandbox")
	viper.SetDefault("PAYMENT_COOLDOWN_SECONDS", 10)
	viper.SetDefault("PAYMENT_SANDBOX_AUTO_SETTLE", true)
	viper.SetDefault("SWEEP_COMPLETE_SPEC", "@every 15m")
	viper.SetDefault("SWEEP_EXPIRE_SPEC", "@every 5m")
	viper.SetDefault("PENDING_PAYMENT_TTL_MINUTES", 30)

	// .env is optional, the environment wins either way
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Booking: BookingConfig{
			ServiceFeeRate:    viper.GetFloat64("BOOKING_SERVICE_FEE_RATE"),
			CleaningFee:       viper.GetInt64("BOOKING_CLEANING_FEE"),
			Currency:          viper.GetString("BOOKING_CURRENCY"),
			TxRetries:         viper.GetInt("BOOKING_TX_RETRIES"),
			CalendarMaxMonths: viper.GetInt("CALENDAR_MAX_MONTHS"),
		},
		Payment: PaymentConfig{
			Provider:   viper.GetString("PAYMENT_PROVIDER"),
			Cooldown:   time.Duration(viper.GetInt("PAYMENT_COOLDOWN_SECONDS")) * time.Second,
			AutoSettle: viper.GetBool("PAYMENT_SANDBOX_AUTO_SETTLE"),
		},
		Sweep: SweepConfig{
			CompleteSpec:      viper.GetString("SWEEP_COMPLETE_SPEC"),
			ExpireSpec:        viper.GetString("SWEEP_EXPIRE_SPEC"),
			PendingPaymentTTL: time.Duration(viper.GetInt("PENDING_PAYMENT_TTL_MINUTES")) * time.Minute,
		},
	}

	return config, nil
}
