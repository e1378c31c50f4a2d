package main

import "time"

// Config holds parameters for the traffic simulator.
type Config struct {
	Broker   string
	Aircraft int
	Vessels  int
	Wildlife int
	Interval time.Duration
}
