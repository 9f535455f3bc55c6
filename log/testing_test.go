package log

import (
	"sync"
	"testing"
)

func TestMemoryLogger_ImplementsLibraryLogger(t *testing.T) {
	var _ LibraryLogger = (*MemoryLogger)(nil)
	var _ Named = (*MemoryLogger)(nil)

	logger := NewMemoryLogger()
	if logger == nil {
		t.Fatal("NewMemoryLogger returned nil")
	}
	if logger.Count() != 0 {
		t.Errorf("Expected 0 messages, got %d", logger.Count())
	}
	if logger.Name() != "" {
		t.Errorf("Name() = %q, want empty", logger.Name())
	}
}

func TestMemoryLogger_CaptureMessages(t *testing.T) {
	logger := NewMemoryLogger()

	logger.Info("Applying mount table")
	logger.Debug("  Bind mounting '/usr' on '/srv/root/usr'")
	logger.Warn("destination already exists")
	logger.Error("mount failed")

	if logger.Count() != 4 {
		t.Errorf("Expected 4 messages, got %d", logger.Count())
	}

	for _, level := range []string{"INFO", "DEBUG", "WARN", "ERROR"} {
		if count := logger.CountByLevel(level); count != 1 {
			t.Errorf("Expected 1 %s message, got %d", level, count)
		}
	}
}

func TestMemoryLogger_GetMessages(t *testing.T) {
	logger := NewMemoryLogger()

	logger.Info("First message")
	logger.Error("Second message")

	messages := logger.GetMessages()
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}

	if messages[0].Level != "INFO" || messages[0].Message != "First message" {
		t.Errorf("First message incorrect: %+v", messages[0])
	}
	if messages[1].Level != "ERROR" || messages[1].Message != "Second message" {
		t.Errorf("Second message incorrect: %+v", messages[1])
	}
}

func TestMemoryLogger_HasMessageWithLevel(t *testing.T) {
	logger := NewMemoryLogger()

	logger.Info("mounting proc")
	logger.Error("remount of /srv/root/usr failed")

	tests := []struct {
		level     string
		substring string
		want      bool
	}{
		{"INFO", "proc", true},
		{"ERROR", "remount", true},
		{"", "remount", true},
		{"INFO", "remount", false},
		{"ERROR", "proc", false},
		{"", "sysfs", false},
	}

	for _, tt := range tests {
		if got := logger.HasMessageWithLevel(tt.level, tt.substring); got != tt.want {
			t.Errorf("HasMessageWithLevel(%q, %q) = %v, want %v", tt.level, tt.substring, got, tt.want)
		}
	}

	if !logger.HasMessage("/srv/root/usr") {
		t.Error("Expected HasMessage to match across levels")
	}
}

func TestMemoryLogger_Formatting(t *testing.T) {
	logger := NewMemoryLogger()

	logger.Debug("  Bind mounting '%s' on '%s'", "/usr", "/srv/root/usr")

	messages := logger.GetMessages()
	if messages[0].Message != "  Bind mounting '/usr' on '/srv/root/usr'" {
		t.Errorf("Debug formatting failed: got %q", messages[0].Message)
	}
}

func TestMemoryLogger_Clear(t *testing.T) {
	logger := NewMemoryLogger()

	logger.Info("Message 1")
	logger.Error("Message 2")
	logger.Clear()

	if logger.Count() != 0 {
		t.Errorf("Expected 0 messages after clear, got %d", logger.Count())
	}

	logger.Info("Message 3")
	if logger.Count() != 1 {
		t.Errorf("Expected 1 message after clear and new log, got %d", logger.Count())
	}
}

func TestMemoryLogger_Concurrent(t *testing.T) {
	logger := NewMemoryLogger()

	var wg sync.WaitGroup
	numGoroutines := 10
	messagesPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				logger.Info("Goroutine %d message %d", id, j)
			}
		}(i)
	}

	wg.Wait()

	expectedCount := numGoroutines * messagesPerGoroutine
	if actual := logger.Count(); actual != expectedCount {
		t.Errorf("Expected %d messages after concurrent writes, got %d", expectedCount, actual)
	}
	if logger.CountByLevel("INFO") != expectedCount {
		t.Errorf("Expected all %d messages to be INFO level", expectedCount)
	}
}

func TestMemoryLogger_String(t *testing.T) {
	logger := NewNamedMemoryLogger("go-chroot.mount")

	logger.Info("First message")
	logger.Error("Second message")

	want := "1. [INFO] First message\n2. [ERROR] Second message\n"
	if got := logger.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if logger.Name() != "go-chroot.mount" {
		t.Errorf("Name() = %q, want go-chroot.mount", logger.Name())
	}
}
