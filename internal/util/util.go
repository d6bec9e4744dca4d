// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package util

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"runtime"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stats logs the memory usage of the process, at debug level.
func Stats() func() {
	return func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		log.Debug().Msgf("Alloc: %d MB, TotalAlloc: %d MB, Requested: %d MB",
			ms.Alloc/1024/1024, ms.TotalAlloc/1024/1024, ms.Sys/1024/1024)
		log.Debug().Msgf("Mallocs: %d, Frees: %d, GC: %d", ms.Mallocs, ms.Frees, ms.NumGC)
	}
}

// LogLevel maps the -v count and -q flag to a zerolog level. Quiet wins.
func LogLevel(verbosity int, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.ErrorLevel
	case verbosity >= 3:
		return zerolog.TraceLevel
	case verbosity >= 1:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func ApplyCliSettings(verbosity int, quiet bool, profile bool, pprofPort uint16) {
	level := LogLevel(verbosity, quiet)
	zerolog.SetGlobalLevel(level)
	if level < zerolog.InfoLevel {
		log.Debug().Msgf("Verbosity up")
	}

	if profile {
		log.Info().Msgf("Profiling is enabled for this session. Server will listen on port %d", pprofPort)
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf("localhost:%d", pprofPort), nil); err != nil {
				log.Error().Err(err).Msgf("Error starting profiling server on port %d", pprofPort)
				return
			}
		}()
	}
}

// ToScreamingSnakeCase turns a Go field name into its environment variable
// form: SelfTLS becomes SELF_TLS. Space separated lists are converted word by word.
func ToScreamingSnakeCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = screamingSnake(w)
	}
	return strings.Join(words, " ")
}

func screamingSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		if r == '-' || r == '.' {
			r = '_'
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
