package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/Kargones/dbakit/internal/constants"
)

// MustLoad загружает конфигурацию приложения из переменных окружения и файлов.
// Порядок: переменные окружения DK_* → app.yaml (DK_CONFIG_APP) →
// secret.yaml (DK_CONFIG_SECRET) → секции подсистем с env override.
// Возвращает:
//   - *Config: указатель на загруженную конфигурацию приложения
//   - error: ошибка загрузки конфигурации или nil при успехе
func MustLoad() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("не удалось прочитать переменные окружения в Config: %w", err)
	}

	// Команда может прийти первым аргументом командной строки
	if cfg.Command == "" && len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
		cfg.Command = os.Args[1]
	}
	if cfg.Command == "" {
		cfg.Command = constants.ActHelp
	}

	l := getSlog(cfg.Actor, "")
	cfg.Logger = l

	if err := loadAppConfig(l, &cfg); err != nil {
		return nil, err
	}
	if err := loadSecretConfig(l, &cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.LoggingConfig, err = loadLoggingConfig(l, &cfg); err != nil {
		return nil, err
	}
	if cfg.MetricsConfig, err = loadMetricsConfig(l, &cfg); err != nil {
		return nil, err
	}
	if err = validateMetricsConfig(cfg.MetricsConfig); err != nil {
		return nil, err
	}
	if cfg.TracingConfig, err = loadTracingConfig(l, &cfg); err != nil {
		return nil, err
	}
	if err = validateTracingConfig(cfg.TracingConfig); err != nil {
		return nil, err
	}

	// Пересоздаём логгер с учётом загруженной конфигурации уровня
	cfg.Logger = getSlog(cfg.Actor, cfg.LoggingConfig.Level)

	return &cfg, nil
}

// loadAppConfig читает app.yaml если путь задан.
// Отсутствие файла конфигурации не ошибка: все параметры могут прийти из env.
func loadAppConfig(l *slog.Logger, cfg *Config) error {
	if cfg.ConfigApp == "" {
		l.Debug("app.yaml не задан, используются переменные окружения")
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigApp)
	if err != nil {
		return fmt.Errorf("не удалось прочитать %s: %w", cfg.ConfigApp, err)
	}

	appCfg := &AppConfig{}
	if err := yaml.Unmarshal(data, appCfg); err != nil {
		return fmt.Errorf("не удалось разобрать %s: %w", cfg.ConfigApp, err)
	}
	cfg.AppConfig = appCfg

	l.Debug("app.yaml загружен",
		slog.String("path", cfg.ConfigApp),
		slog.Int("connections", len(appCfg.Connections)),
	)
	return nil
}

// loadSecretConfig читает secret.yaml если путь задан.
func loadSecretConfig(l *slog.Logger, cfg *Config) error {
	if cfg.ConfigSecret == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigSecret)
	if err != nil {
		return fmt.Errorf("не удалось прочитать %s: %w", cfg.ConfigSecret, err)
	}

	secretCfg := &SecretConfig{}
	if err := yaml.Unmarshal(data, secretCfg); err != nil {
		return fmt.Errorf("не удалось разобрать %s: %w", cfg.ConfigSecret, err)
	}
	cfg.SecretConfig = secretCfg

	l.Debug("secret.yaml загружен", slog.String("path", cfg.ConfigSecret))
	return nil
}

// ParseFileMoves разбирает строку DK_FILE_MOVES формата
// "logical1=/path1,logical2=/path2" в отображение.
func ParseFileMoves(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("не заданы файлы для переноса")
	}

	moves := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, dest, ok := strings.Cut(pair, "=")
		if !ok || name == "" || dest == "" {
			return nil, fmt.Errorf("некорректная пара %q, ожидается логическое_имя=путь", pair)
		}
		moves[strings.TrimSpace(name)] = strings.TrimSpace(dest)
	}
	if len(moves) == 0 {
		return nil, errors.New("не заданы файлы для переноса")
	}
	return moves, nil
}

// ParseProperties разбирает строку свойств формата "Name=Value,Name2=Value2".
// Пустая строка — пустое отображение.
func ParseProperties(s string) (map[string]string, error) {
	props := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return props, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("некорректное свойство %q, ожидается Имя=Значение", pair)
		}
		props[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return props, nil
}

// ParseList разбирает список значений через запятую, отбрасывая пустые элементы.
func ParseList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getSlog создаёт bootstrap-логгер для этапа загрузки конфигурации.
// Пишет в stderr, уровень задаётся строкой (по умолчанию info).
func getSlog(actor, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	l := slog.New(handler)
	if actor != "" {
		l = l.With(slog.String("actor", actor))
	}
	slog.SetDefault(l)
	return l
}
