// Package worker warms the air quality cache and publishes assessments for
// a fixed set of monitored locations.
package worker

import (
	"fmt"
	"time"
)

// RefreshTarget is a named group of monitored points.
type RefreshTarget struct {
	Name string

	// Points are the coordinates assessed on every refresh.
	Points []Point

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Key identifies the point in published messages.
func (p Point) Key() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Targets are the monitored regions. If empty, DefaultRefreshTargets is used.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent point refreshes.
	// Default: 3
	Concurrency int

	// Timeout bounds each point refresh.
	// Default: 30 seconds
	Timeout time.Duration

	// IncludeForecast also warms the forecast cache for each point.
	IncludeForecast bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:     DefaultRefreshTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultRefreshTargets returns metropolitan areas with a history of
// ozone and wildfire smoke episodes.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{
			Name:     "Los Angeles",
			Priority: 1,
			Points: []Point{
				{Lat: 34.0522, Lon: -118.2437}, // Downtown
				{Lat: 34.0669, Lon: -117.9957}, // San Gabriel Valley
				{Lat: 33.9425, Lon: -118.4081}, // LAX
			},
		},
		{
			Name:     "Houston",
			Priority: 1,
			Points: []Point{
				{Lat: 29.7604, Lon: -95.3698}, // Downtown
				{Lat: 29.7355, Lon: -95.2586}, // Ship Channel
			},
		},
		{
			Name:     "Phoenix",
			Priority: 1,
			Points: []Point{
				{Lat: 33.4484, Lon: -112.0740}, // Downtown
				{Lat: 33.4255, Lon: -111.9400}, // Tempe
			},
		},
		{
			Name:     "Fresno",
			Priority: 2,
			Points: []Point{
				{Lat: 36.7378, Lon: -119.7871},
			},
		},
		{
			Name:     "Salt Lake City",
			Priority: 2,
			Points: []Point{
				{Lat: 40.7608, Lon: -111.8910},
			},
		},
		{
			Name:     "Denver",
			Priority: 2,
			Points: []Point{
				{Lat: 39.7392, Lon: -104.9903},
			},
		},
		{
			Name:     "Seattle",
			Priority: 3,
			Points: []Point{
				{Lat: 47.6062, Lon: -122.3321},
			},
		},
		{
			Name:     "New York",
			Priority: 3,
			Points: []Point{
				{Lat: 40.7128, Lon: -74.0060}, // Manhattan
				{Lat: 40.6782, Lon: -73.9442}, // Brooklyn
			},
		},
	}
}

// AllPoints returns all points from all targets, in target order.
func (c RefreshConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
