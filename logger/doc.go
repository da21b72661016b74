// Package logger provides structured logging for the pipeline engine,
// built on zerolog.
//
// The engine never logs through a concrete sink directly; packages obtain a
// *Logger (usually via dependency injection at pipeline construction) and the
// global logger exists only as a fallback for code with no injected instance.
package logger
