package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestOneShot(t *testing.T) {
	tests := []struct {
		name string
		cfg  Cfg
		want bool
	}{
		{
			name: "Date set",
			cfg:  Cfg{ImportDate: "20210501", ImportNumbers: []int{1}},
			want: true,
		},
		{
			name: "No date",
			cfg:  Cfg{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.OneShot() != tt.want {
				t.Errorf("Expected OneShot() == %v", tt.want)
			}
		})
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:              "8080",
		UserAgent:         "Test Agent",
		SchedulerInterval: 900,
		APIAccessKey:      "test-key",
		Version:           "test-version",
		ProvidersDir:      "./providers",
		RedisAddr:         "localhost:6379",
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "test_user",
		DBPassword:        "test_password",
		DBName:            "test_db",
		Timezone:          "UTC",
		Debug:             true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.SchedulerInterval != 900 {
		t.Errorf("Expected scheduler interval 900, got %d", cfg.SchedulerInterval)
	}
	if cfg.ProvidersDir != "./providers" {
		t.Errorf("Expected providers dir './providers', got '%s'", cfg.ProvidersDir)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
}
