// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import "time"

var (
	// root
	verbosity int
	// root
	quiet bool
	// root
	profile bool
	// root
	pprofPort uint16
	// root
	configFile string
	// audit
	name string
	// audit
	format string
	// audit
	workers int
	// audit, check
	timeout time.Duration
	// check
	interactive bool
	// check
	hashed bool
	// serve
	selfTLS bool
	// serve
	tlsCert string
	// serve
	tlsKey string
	// serve
	host string
	// serve
	port uint16
)
