// Package logger wraps zap for the alarm engine and its binaries:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so that every
//     worker logs with the fields of the call chain that started it,
//   - level parsing for the YAML configuration,
//   - shortcuts such as Info or WarnKV.
package logger
