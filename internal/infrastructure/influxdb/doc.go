// Package influxdb records climate telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Each rendered unit
// state becomes one point in the climate_state measurement, tagged by
// device and mode, carrying target and current temperature, power,
// availability and the raw mode index.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { logger.Warn("influx write failed", "error", err) })
//
//	client.WriteClimateState(sample)
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Async write errors are delivered to the SetOnError callback; connection
// and health check errors are returned directly.
package influxdb
