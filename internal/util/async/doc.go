// Package async provides utilities for parallel task execution.
//
// [RunParallel] executes independent operations concurrently and reports the
// first failure; [Map] fans a function out over a slice and keeps results in
// input order. Status reads issue their describe calls through it, and runtime
// tag verification checks every runtime at once.
package async
