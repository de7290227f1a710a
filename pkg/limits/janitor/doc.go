// Package janitor schedules periodic maintenance sweeps: evicting idle
// clients from the admission tracker and purging audit decisions past
// their retention period.
package janitor
