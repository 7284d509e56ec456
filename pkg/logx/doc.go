// Package logx is schedwatch's structured logging: a value-type Logger over
// zerolog with per-component fields.
//
// Console output is human readable with a short timestamp and file:line
// caller. The optional file sink is JSON, one event per line.
package logx
