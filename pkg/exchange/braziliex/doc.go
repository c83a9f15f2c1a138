// Package braziliex implements the Braziliex REST API.
// The venue exposes REST snapshot endpoints only; there is no streaming.
//
// The package includes:
//   - Protocol: endpoint catalogue, request building, signing and response classification
//   - Sign: HMAC-SHA512 signing of private request bodies
//   - Normalizer: conversion between Braziliex payloads and canonical types
//   - ParseConfirmation: tokenizer for the free-text order placement message
//   - Exchange: the client tying them to a session, catalog and order tracker
//
// Example usage:
//
//	config := core.DefaultConfig(braziliex.Name).WithCredentials(&core.Credentials{
//		APIKey:    "key",
//		SecretKey: "secret",
//	})
//	ex, err := braziliex.New(config)
//	if err != nil {
//		return err
//	}
//	defer ex.Close()
//	ticker, err := ex.FetchTicker(ctx, "BTC/BRL")
package braziliex
