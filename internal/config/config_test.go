package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `doc:"Config file path"`

	// Basic types
	StringField string   `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `toml:"test.int_field" env:"INT_FIELD"`
	FloatField  float64  `toml:"test.float_field" env:"FLOAT_FIELD"`
	ByteField   uint8    `toml:"test.byte_field" env:"BYTE_FIELD"`
	SliceField  []string `toml:"test.slice_field" env:"SLICE_FIELD"`

	// Nested config
	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func TestLoadConfigFromTOML(t *testing.T) {
	// Create a temporary TOML file
	tomlContent := `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
float_field = 6.5
byte_field = 200
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`

	tmpFile, err := os.CreateTemp("", "test_config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, writeErr := tmpFile.WriteString(tomlContent); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()

	// Test loading config
	config := &TestConfig{
		Config: tmpFile.Name(),
	}

	err = LoadConfig(config, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify values
	if config.StringField != "hello world" {
		t.Errorf("Expected StringField to be 'hello world', got '%s'", config.StringField)
	}

	if !config.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", config.BoolField)
	}

	if config.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", config.IntField)
	}

	if config.FloatField != 6.5 {
		t.Errorf("Expected FloatField to be 6.5, got %v", config.FloatField)
	}

	if config.ByteField != 200 {
		t.Errorf("Expected ByteField to be 200, got %d", config.ByteField)
	}

	expectedSlice := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}

	if config.NestedString != "nested value" {
		t.Errorf("Expected NestedString to be 'nested value', got '%s'", config.NestedString)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	// Set environment variables
	os.Setenv("WEATHERHAT_STRING_FIELD", "env string")
	os.Setenv("WEATHERHAT_BOOL_FIELD", "false")
	os.Setenv("WEATHERHAT_INT_FIELD", "123")
	os.Setenv("WEATHERHAT_SLICE_FIELD", "a,b,c")
	os.Setenv("WEATHERHAT_NESTED_VALUE", "env nested")

	defer func() {
		os.Unsetenv("WEATHERHAT_STRING_FIELD")
		os.Unsetenv("WEATHERHAT_BOOL_FIELD")
		os.Unsetenv("WEATHERHAT_INT_FIELD")
		os.Unsetenv("WEATHERHAT_SLICE_FIELD")
		os.Unsetenv("WEATHERHAT_NESTED_VALUE")
	}()

	config := &TestConfig{}

	err := LoadConfig(config, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify values
	if config.StringField != "env string" {
		t.Errorf("Expected StringField to be 'env string', got '%s'", config.StringField)
	}

	if config.BoolField {
		t.Errorf("Expected BoolField to be false, got %v", config.BoolField)
	}

	if config.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", config.IntField)
	}

	expectedSlice := []string{"a", "b", "c"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}

	if config.NestedString != "env nested" {
		t.Errorf("Expected NestedString to be 'env nested', got '%s'", config.NestedString)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	// Create a temporary TOML file
	tomlContent := `
[test]
string_field = "toml value"
bool_field = true
int_field = 100
slice_field = ["toml1", "toml2"]
`

	tmpFile, err := os.CreateTemp("", "test_config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, writeErr := tmpFile.WriteString(tomlContent); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()

	// Set environment variables that should override TOML
	os.Setenv("WEATHERHAT_STRING_FIELD", "env override")
	os.Setenv("WEATHERHAT_BOOL_FIELD", "false")

	defer func() {
		os.Unsetenv("WEATHERHAT_STRING_FIELD")
		os.Unsetenv("WEATHERHAT_BOOL_FIELD")
	}()

	config := &TestConfig{
		Config: tmpFile.Name(),
	}

	err = LoadConfig(config, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify env vars override TOML values
	if config.StringField != "env override" {
		t.Errorf("Expected StringField to be 'env override', got '%s'", config.StringField)
	}

	if config.BoolField {
		t.Errorf("Expected BoolField to be false (env override), got %v", config.BoolField)
	}

	// Verify TOML values are used when no env override
	if config.IntField != 100 {
		t.Errorf("Expected IntField to be 100 (from TOML), got %d", config.IntField)
	}

	expectedSlice := []string{"toml1", "toml2"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v (from TOML), got %v", expectedSlice, config.SliceField)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
	}

	for _, test := range tests {
		result := getNestedValue(data, test.path)
		if result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

type fieldKinds struct {
	StringField string
	BoolField   bool
	IntField    int
	ByteField   uint8
	FloatField  float64
	SliceField  []string
}

func TestSetFieldValue(t *testing.T) {
	tests := []struct {
		field   string
		value   any
		want    any
		wantErr bool
	}{
		{"StringField", "test string", "test string", false},
		{"BoolField", true, true, false},
		{"IntField", int64(42), 42, false},
		{"ByteField", int64(200), uint8(200), false},
		{"ByteField", int64(300), uint8(0), true},
		{"ByteField", int64(-1), uint8(0), true},
		{"FloatField", int64(7), 7.0, false},
		{"FloatField", 6.5, 6.5, false},
		{"SliceField", []any{"a", "b", "c"}, []string{"a", "b", "c"}, false},
		{"IntField", "42", 0, true},
		{"StringField", int64(1), "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.field, tt.value), func(t *testing.T) {
			var s fieldKinds
			field := reflect.ValueOf(&s).Elem().FieldByName(tt.field)

			err := setFieldValue(field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setFieldValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := field.Interface(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	tests := []struct {
		field   string
		value   string
		want    any
		wantErr bool
	}{
		{"StringField", "test string", "test string", false},
		{"BoolField", "true", true, false},
		{"BoolField", "maybe", false, true},
		{"IntField", "123", 123, false},
		{"IntField", "12x", 0, true},
		{"ByteField", "255", uint8(255), false},
		{"ByteField", "256", uint8(0), true},
		{"FloatField", "6.5", 6.5, false},
		{"SliceField", "x,y,z", []string{"x", "y", "z"}, false},
		{"SliceField", " a , b , c ", []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%s", tt.field, tt.value), func(t *testing.T) {
			var s fieldKinds
			field := reflect.ValueOf(&s).Elem().FieldByName(tt.field)

			err := setFieldValueFromString(field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setFieldValueFromString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := field.Interface(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestLoadConfigReportsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weatherhat.toml")
	content := "[test]\nint_field = \"many\"\nstring_field = \"ok\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEATHERHAT_BOOL_FIELD", "perhaps")

	config := &TestConfig{Config: path}
	err := LoadConfig(config, nil)
	if err == nil {
		t.Fatal("LoadConfig should report the mistyped values")
	}
	for _, key := range []string{"test.int_field", "WEATHERHAT_BOOL_FIELD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
	if config.StringField != "ok" {
		t.Errorf("valid values were not applied: StringField = %q", config.StringField)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weatherhat.toml")
	if err := os.WriteFile(path, []byte("[test]\nint_field = 5\nstring_field = \"file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEATHERHAT_INT_FIELD", "6")

	config := &TestConfig{Config: path}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&config.IntField, "int-field", 0, "")
	if err := cmd.Flags().Set("int-field", "7"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(config, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.IntField != 7 {
		t.Errorf("IntField = %d, want the flag value 7", config.IntField)
	}
	if config.StringField != "file" {
		t.Errorf("StringField = %q, want file", config.StringField)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{
		Config: "nonexistent_file.toml",
	}

	// Should not fail when file doesn't exist
	err := LoadConfig(config, nil)
	if err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

// LoggingConfig matches the logging fields in main.go Options struct.
type LoggingConfig struct {
	Config         string `doc:"Config file path"`
	LoggingLevel   string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingStation string `toml:"logging.station" env:"LOGGING_STATION"`
	LoggingHat     string `toml:"logging.hat" env:"LOGGING_HAT"`
}

func TestLoadLoggingModuleLevels(t *testing.T) {
	tomlContent := `
[logging]
level = "info"
format = "text"
station = "debug"
hat = "warn"
`

	tmpFile, err := os.CreateTemp("", "logging_config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, writeErr := tmpFile.WriteString(tomlContent); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()

	config := &LoggingConfig{
		Config:         tmpFile.Name(),
		LoggingLevel:   "info", // defaults
		LoggingFormat:  "text",
		LoggingStation: "info",
		LoggingHat:     "info",
	}

	err = LoadConfig(config, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"LoggingLevel", config.LoggingLevel, "info"},
		{"LoggingFormat", config.LoggingFormat, "text"},
		{"LoggingStation", config.LoggingStation, "debug"},
		{"LoggingHat", config.LoggingHat, "warn"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	logCfg := LoadLoggingConfig(tmpFile.Name())
	if logCfg.Modules["station"] != "debug" || logCfg.Modules["hat"] != "warn" {
		t.Errorf("LoadLoggingConfig modules = %v", logCfg.Modules)
	}
	if _, ok := logCfg.Modules["level"]; ok {
		t.Error("level must not be treated as a module")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	// Create a temporary file with invalid TOML
	invalidToml := `
[test
invalid toml syntax
`

	tmpFile, err := os.CreateTemp("", "invalid_config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, writeErr := tmpFile.WriteString(invalidToml); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()

	config := &TestConfig{
		Config: tmpFile.Name(),
	}

	// Should fail with invalid TOML
	err = LoadConfig(config, nil)
	if err == nil {
		t.Fatalf("LoadConfig should fail for invalid TOML")
	}
}
