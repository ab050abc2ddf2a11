// Package messaging provides a broker-agnostic API for publishing messages.
//
// Business code depends on the Publisher interface only, so the broker
// (NATS, Kafka, NSQ or the in-process drivers used for local runs and
// tests) can be swapped through configuration.
package messaging
