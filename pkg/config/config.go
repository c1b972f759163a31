package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Drivers soportados para el almacén de registros.
const (
	StoreDriverREST     = "rest"
	StoreDriverPostgres = "postgres"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	Report ReportConfig
	Stock  StockConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig almacén remoto paginado de donde se leen los registros.
type StoreConfig struct {
	Driver         string // rest | postgres
	BaseURL        string
	APIToken       string
	ContainerID    string // app / contenedor de registros
	RequestTimeout time.Duration
}

// ReportConfig vistas de reporte y refresco programado.
type ReportConfig struct {
	StockViewName    string
	ShipmentViewName string // vacío = cualquier vista
	CronSchedule     string // vacío = sin refresco programado
	CacheTTL         time.Duration
}

// StockConfig constantes del dominio. Se construye una vez y se pasa a cada componente.
type StockConfig struct {
	Coefficients             map[string]decimal.Decimal // forma → kg por unidad
	DryingDays               map[string]int             // especie → días de secado
	AdminUserCodes           []string                   // pueden sacar leña no seca
	FiscalYearStartMonth     int
	PageSize                 int
	MaxOffset                int
	CursorFallbackMaxRecords int
	ShipmentFields           []string
	Location                 *time.Location
}

// IsAdmin indica si el código de usuario está en la lista de administradores.
func (c StockConfig) IsAdmin(userCode string) bool {
	for _, code := range c.AdminUserCodes {
		if code == userCode {
			return true
		}
	}
	return false
}

// DefaultStockConfig valores por defecto del dominio.
func DefaultStockConfig() StockConfig {
	return StockConfig{
		Coefficients: map[string]decimal.Decimal{
			"box":    decimal.NewFromInt(220),
			"bundle": decimal.NewFromInt(7),
			"loose":  decimal.NewFromInt(1),
		},
		DryingDays: map[string]int{
			"Oak":   365,
			"Cedar": 180,
		},
		FiscalYearStartMonth:     4,
		PageSize:                 500,
		MaxOffset:                50000,
		CursorFallbackMaxRecords: 5000,
		ShipmentFields:           []string{"shipping_to", "date", "kg", "species"},
		Location:                 time.Local,
	}
}

// Load lee la configuración desde variables de entorno; envFile (opcional) se precarga con godotenv.
// Las env vars tienen prioridad sobre el archivo.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cargar archivo env %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load() // .env es opcional
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	env := getString(v, "APP_ENV", "development")
	cfg := &Config{
		App: AppConfig{
			Env:      env,
			Name:     getString(v, "APP_NAME", "woodstock-api"),
			LogLevel: getString(v, "LOG_LEVEL", defaultLogLevel(env)),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "woodstock"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 10)),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "woodstock-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Store: StoreConfig{
			Driver:         getString(v, "STORE_DRIVER", StoreDriverREST),
			BaseURL:        getString(v, "STORE_BASE_URL", ""),
			APIToken:       getString(v, "STORE_API_TOKEN", ""),
			ContainerID:    getString(v, "STORE_CONTAINER_ID", ""),
			RequestTimeout: getDuration(v, "STORE_REQUEST_TIMEOUT", 15*time.Second),
		},
		Report: ReportConfig{
			StockViewName:    getString(v, "REPORT_STOCK_VIEW", "stock-summary"),
			ShipmentViewName: getString(v, "REPORT_SHIPMENT_VIEW", ""),
			CronSchedule:     getString(v, "REPORT_CRON_SCHEDULE", "*/15 * * * *"),
			CacheTTL:         getDuration(v, "REPORT_CACHE_TTL", 5*time.Minute),
		},
	}

	stock, err := loadStock(v)
	if err != nil {
		return nil, err
	}
	cfg.Stock = stock

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate asegura que los campos obligatorios estén presentes y sean coherentes.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config es nil")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET es obligatorio")
	}
	switch c.Store.Driver {
	case StoreDriverREST:
		if c.Store.BaseURL == "" {
			return errors.New("STORE_BASE_URL es obligatorio con STORE_DRIVER=rest")
		}
	case StoreDriverPostgres:
	default:
		return fmt.Errorf("STORE_DRIVER desconocido: %q", c.Store.Driver)
	}
	return c.Stock.Validate()
}

// Validate revisa las constantes del dominio.
func (c StockConfig) Validate() error {
	if len(c.Coefficients) == 0 {
		return errors.New("STOCK_COEFFICIENTS no puede estar vacío")
	}
	for form, coef := range c.Coefficients {
		if !coef.IsPositive() {
			return fmt.Errorf("coeficiente de %q debe ser positivo", form)
		}
	}
	for species, days := range c.DryingDays {
		if days < 0 {
			return fmt.Errorf("días de secado de %q no pueden ser negativos", species)
		}
	}
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return fmt.Errorf("FISCAL_YEAR_START_MONTH fuera de rango: %d", c.FiscalYearStartMonth)
	}
	if c.PageSize <= 0 {
		return errors.New("STOCK_PAGE_SIZE debe ser positivo")
	}
	if c.MaxOffset <= 0 || c.CursorFallbackMaxRecords <= 0 {
		return errors.New("límites de paginación inválidos")
	}
	if c.Location == nil {
		return errors.New("zona horaria no definida")
	}
	return nil
}

func loadStock(v *viper.Viper) (StockConfig, error) {
	s := DefaultStockConfig()

	if raw := getString(v, "STOCK_COEFFICIENTS", ""); raw != "" {
		coefs, err := parseDecimalPairs(raw)
		if err != nil {
			return s, fmt.Errorf("STOCK_COEFFICIENTS: %w", err)
		}
		s.Coefficients = coefs
	}
	if raw := getString(v, "STOCK_DRYING_DAYS", ""); raw != "" {
		days, err := parseIntPairs(raw)
		if err != nil {
			return s, fmt.Errorf("STOCK_DRYING_DAYS: %w", err)
		}
		s.DryingDays = days
	}
	s.AdminUserCodes = splitList(getString(v, "STOCK_ADMIN_USER_CODES", ""))
	s.FiscalYearStartMonth = getInt(v, "FISCAL_YEAR_START_MONTH", s.FiscalYearStartMonth)
	s.PageSize = getInt(v, "STOCK_PAGE_SIZE", s.PageSize)
	s.MaxOffset = getInt(v, "STOCK_MAX_OFFSET", s.MaxOffset)
	s.CursorFallbackMaxRecords = getInt(v, "STOCK_CURSOR_FALLBACK_MAX", s.CursorFallbackMaxRecords)
	if fields := splitList(getString(v, "STOCK_SHIPMENT_FIELDS", "")); len(fields) > 0 {
		s.ShipmentFields = fields
	}
	if tz := getString(v, "TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return s, fmt.Errorf("TIMEZONE: %w", err)
		}
		s.Location = loc
	}
	return s, nil
}

// defaultLogLevel: desarrollo registra todo, producción solo advertencias.
func defaultLogLevel(env string) string {
	if env == "production" {
		return "warn"
	}
	return "debug"
}

// parseDecimalPairs interpreta "box:220,bundle:7".
func parseDecimalPairs(raw string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, item := range splitList(raw) {
		key, val, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("par inválido %q", item)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("valor inválido en %q: %w", item, err)
		}
		out[strings.TrimSpace(key)] = d
	}
	return out, nil
}

// parseIntPairs interpreta "Oak:365,Cedar:180".
func parseIntPairs(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, item := range splitList(raw) {
		key, val, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("par inválido %q", item)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("valor inválido en %q: %w", item, err)
		}
		out[strings.TrimSpace(key)] = n
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SortedForms devuelve las formas configuradas en orden alfabético (útil para logs).
func (c StockConfig) SortedForms() []string {
	forms := make([]string, 0, len(c.Coefficients))
	for f := range c.Coefficients {
		forms = append(forms, f)
	}
	sort.Strings(forms)
	return forms
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		if d := v.GetDuration(key); d > 0 {
			return d
		}
	}
	return def
}
