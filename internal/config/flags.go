// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a control API address in format [host]:[port]
//	-d local database path (SQLite file)
//	-remote-url base URL of the cloud record store
//	-remote-token bearer token for the record store
//	-remote-timeout remote request timeout (e.g., "15s")
//	-sync-interval background sync interval (e.g., "5m")
//	-prune-interval conflict retention job interval (e.g., "24h")
//	-batch-size batch-save ceiling for push
//	-max-attempts dead-letter ceiling for outbox items (0 = retry forever)
//	-conflict-retention how long resolved conflicts are kept (e.g., "720h")
//	-request-timeout inbound request timeout (e.g., "30s")
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var remoteURL string
	var remoteToken string
	var remoteTimeout time.Duration
	var syncInterval time.Duration
	var pruneInterval time.Duration
	var batchSize int
	var maxAttempts int
	var conflictRetention time.Duration
	var requestTimeout time.Duration
	var jsonConfigPath string

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.StringVar(&remoteURL, "remote-url", "", "Record store base URL")
	flag.StringVar(&remoteToken, "remote-token", "", "Record store bearer token")
	flag.DurationVar(&remoteTimeout, "remote-timeout", 0, "Remote request timeout (e.g., 15s)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	flag.DurationVar(&pruneInterval, "prune-interval", 0, "Conflict pruning interval (e.g., 24h)")
	flag.IntVar(&batchSize, "batch-size", 0, "Batch-save ceiling for push")
	flag.IntVar(&maxAttempts, "max-attempts", 0, "Dead-letter ceiling for outbox items (0 = retry forever)")
	flag.DurationVar(&conflictRetention, "conflict-retention", 0, "Conflict log retention (e.g., 720h)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Inbound request timeout (e.g., 30s)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		Sync: Sync{
			BatchSize:         batchSize,
			MaxAttempts:       maxAttempts,
			ConflictRetention: conflictRetention,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Remote: Remote{
			BaseURL:        remoteURL,
			Token:          remoteToken,
			RequestTimeout: remoteTimeout,
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Workers: Workers{
			SyncInterval:  syncInterval,
			PruneInterval: pruneInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
