package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		level  slog.Level
		log    func(l *slog.Logger)
		suffix string
	}{
		{
			name:   "module value",
			log:    func(l *slog.Logger) { l.Info("Initialized 2 configurations", "module", "manager") },
			suffix: "] [manager] Initialized 2 configurations\n",
		},
		{
			name:   "bound values first",
			log:    func(l *slog.Logger) { l.With("worker", 3).Info("done", "module", "pass") },
			suffix: "] [3] [pass] done\n",
		},
		{
			name:   "groups drop keys",
			log:    func(l *slog.Logger) { l.WithGroup("io").Info("opened", "file", "a.h5") },
			suffix: "] [a.h5] opened\n",
		},
		{
			name:   "non info level",
			log:    func(l *slog.Logger) { l.Warn("short run") },
			suffix: "] [WARN] short run\n",
		},
		{
			name:  "below level",
			level: slog.LevelWarn,
			log:   func(l *slog.Logger) { l.Info("hidden") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: tt.level})))
			if tt.suffix == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Regexp(t, `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] `, buf.String())
			assert.Contains(t, buf.String(), tt.suffix)
		})
	}
}
