// Package logging builds the slog loggers used across steamgog.
//
// Two handler formats are supported: a console handler producing
// "TIMESTAMP LEVEL component: message key=value" lines for interactive use,
// and a JSON handler for machine consumption. Output fans out to stdout plus
// a log file under the configured log directory. The component attribute is
// hoisted into the console line prefix by convention.
package logging
