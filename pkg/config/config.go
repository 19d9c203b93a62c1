package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the data root when no path is given.
const DefaultFile = "job-pilot.yaml"

// Config contains runtime settings shared by the server and the CLI
type Config struct {
	Root string `yaml:"root"` // directory relative paths are resolved against

	CandidateName   string `yaml:"candidate_name"`
	DataFile        string `yaml:"data_file"`
	ResumesDir      string `yaml:"resumes_dir"`
	CoverLettersDir string `yaml:"coverletters_dir"`
	WhyCompanyDir   string `yaml:"whycompany_dir"`
	TemplatesDir    string `yaml:"templates_dir"`
	BaseResume      string `yaml:"base_resume"`
	HistoryDB       string `yaml:"history_db"`

	LogLevel            string `yaml:"log_level"`
	Host                string `yaml:"host"`
	Port                string `yaml:"port"`
	FollowUpHorizonDays int    `yaml:"followup_horizon_days"`

	Checker struct {
		Workers   int           `yaml:"workers"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"checker"`

	Git struct {
		Enabled bool   `yaml:"enabled"`
		Push    bool   `yaml:"push"`
		SSHKey  string `yaml:"ssh_key"`
	} `yaml:"git"`

	Google struct {
		CredentialsFile string        `yaml:"credentials_file"`
		DriveFolderID   string        `yaml:"drive_folder_id"`
		SpreadsheetID   string        `yaml:"spreadsheet_id"`
		SheetTab        string        `yaml:"sheet_tab"`
		CalendarID      string        `yaml:"calendar_id"`
		BackupInterval  time.Duration `yaml:"backup_interval"` // 0 disables periodic Drive backup
	} `yaml:"google"`

	AI struct {
		Provider     string `yaml:"provider"` // gemini, openai or anthropic
		Model        string `yaml:"model"`
		GeminiKey    string `yaml:"-"`
		OpenAIKey    string `yaml:"-"`
		AnthropicKey string `yaml:"-"`
	} `yaml:"ai"`

	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"telegram_chat_id"` // 0 accepts any chat
	DiscordToken   string `yaml:"-"`
	DiscordChannel string `yaml:"discord_channel_id"` // empty accepts any channel
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	cfg := Config{
		Root:                ".",
		CandidateName:       "Your_Name",
		DataFile:            "job_tracker.csv",
		ResumesDir:          "Resumes",
		CoverLettersDir:     "CoverLetters",
		WhyCompanyDir:       "WhyCompany",
		TemplatesDir:        "Templates",
		HistoryDB:           "job-pilot.db",
		LogLevel:            "info",
		Host:                "127.0.0.1",
		Port:                "5000",
		FollowUpHorizonDays: 7,
	}
	cfg.Checker.Workers = 5
	cfg.Checker.Timeout = 15 * time.Second
	cfg.Checker.UserAgent = "Mozilla/5.0 (compatible; job-pilot)"
	cfg.Google.SheetTab = "Applications"
	cfg.Google.CalendarID = "primary"
	cfg.AI.Provider = "gemini"
	return cfg
}

// Load builds the configuration from defaults, a .env file, the YAML file at
// path (or DefaultFile when path is empty and the file exists) and finally
// environment variables. Relative paths are resolved against Root.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	cfg.applyEnv()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Root == "" || c.Root == "." {
		c.Root = filepath.Dir(path)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Root, "JOB_PILOT_ROOT")
	setString(&c.CandidateName, "CANDIDATE_NAME")
	setString(&c.DataFile, "TRACKER_FILE")
	setString(&c.ResumesDir, "RESUMES_DIR")
	setString(&c.CoverLettersDir, "COVERLETTERS_DIR")
	setString(&c.WhyCompanyDir, "WHYCOMPANY_DIR")
	setString(&c.TemplatesDir, "TEMPLATES_DIR")
	setString(&c.BaseResume, "BASE_RESUME_FILENAME")
	setString(&c.HistoryDB, "HISTORY_DB")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Host, "HOST")
	setString(&c.Port, "PORT")

	if v := os.Getenv("FOLLOWUP_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FollowUpHorizonDays = n
		}
	}
	if v := os.Getenv("CHECKER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Checker.Workers = n
		}
	}

	setBool(&c.Git.Enabled, "GIT_SYNC")
	setBool(&c.Git.Push, "GIT_PUSH")
	setString(&c.Git.SSHKey, "GIT_SSH_KEY")

	setString(&c.Google.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	setString(&c.Google.DriveFolderID, "DRIVE_FOLDER_ID")
	setString(&c.Google.SpreadsheetID, "SPREADSHEET_ID")
	setString(&c.Google.SheetTab, "SHEET_TAB")
	setString(&c.Google.CalendarID, "CALENDAR_ID")
	if v := os.Getenv("DRIVE_BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Google.BackupInterval = d
		}
	}

	setString(&c.AI.Provider, "AI_PROVIDER")
	setString(&c.AI.Model, "AI_MODEL")
	c.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	c.AI.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AI.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")

	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TelegramChatID = id
		}
	}
	setString(&c.DiscordChannel, "DISCORD_CHANNEL_ID")
}

func (c *Config) resolvePaths() {
	for _, p := range []*string{
		&c.DataFile, &c.ResumesDir, &c.CoverLettersDir, &c.WhyCompanyDir,
		&c.TemplatesDir, &c.HistoryDB, &c.Google.CredentialsFile,
	} {
		if *p == "" || filepath.IsAbs(*p) || *p == ":memory:" {
			continue
		}
		*p = filepath.Join(c.Root, *p)
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.CandidateName) == "" {
		problems = append(problems, "candidate_name is empty")
	}
	if strings.ContainsAny(c.CandidateName, `/\`) {
		problems = append(problems, "candidate_name must not contain path separators")
	}
	if c.DataFile == "" {
		problems = append(problems, "data_file is empty")
	}
	if c.FollowUpHorizonDays < 0 {
		problems = append(problems, "followup_horizon_days must not be negative")
	}
	if c.Checker.Workers < 1 {
		problems = append(problems, "checker.workers must be at least 1")
	}
	switch c.AI.Provider {
	case "gemini", "openai", "anthropic", "":
	default:
		problems = append(problems, fmt.Sprintf("unknown ai.provider %q", c.AI.Provider))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AIKey returns the API key of the selected AI provider.
func (c Config) AIKey() string {
	switch c.AI.Provider {
	case "openai":
		return c.AI.OpenAIKey
	case "anthropic":
		return c.AI.AnthropicKey
	}
	return c.AI.GeminiKey
}

// BackupPaths lists the tracker file and the document directories copied
// to Drive, skipping unset ones.
func (c Config) BackupPaths() []string {
	var out []string
	for _, p := range []string{c.DataFile, c.ResumesDir, c.CoverLettersDir, c.WhyCompanyDir} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Addr is the listen address of the web server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
