// Package discord posts plain-text messages to a Discord channel through an
// incoming webhook.
package discord
