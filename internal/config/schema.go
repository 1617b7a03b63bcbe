package config

// specSchema is the JSON Schema every spec file is checked against before
// the engine's own validation runs. It mirrors the Spec data model; the
// engine still enforces the cross-field rules (mode vs. iterations/duration)
// that a schema cannot express cleanly.
const specSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["target", "load", "transport", "timing", "logging"],
  "properties": {
    "id": { "type": "string" },
    "name": { "type": "string" },
    "target": {
      "type": "object",
      "required": ["requestSnapshot"],
      "properties": {
        "requestId": { "type": "string" },
        "requestSnapshot": {
          "type": "object",
          "required": ["method", "url"],
          "properties": {
            "method": { "type": "string", "minLength": 1 },
            "url": { "type": "string", "minLength": 1 },
            "headers": {
              "type": "object",
              "additionalProperties": { "type": "string" }
            },
            "body": { "type": "string" }
          }
        }
      }
    },
    "load": {
      "type": "object",
      "required": ["mode", "concurrency"],
      "properties": {
        "mode": { "enum": ["fixed_iterations", "fixed_duration"] },
        "iterations": { "type": "integer", "minimum": 0 },
        "durationMs": { "type": "integer", "minimum": 0 },
        "concurrency": { "type": "integer", "minimum": 1 }
      }
    },
    "transport": {
      "type": "object",
      "properties": {
        "keepAlive": { "type": "boolean" },
        "followRedirects": { "type": "boolean" },
        "proxyUrl": { "type": "string" },
        "verifySsl": { "type": "boolean" }
      }
    },
    "timing": {
      "type": "object",
      "required": ["timeoutMs"],
      "properties": {
        "timeoutMs": { "type": "integer", "minimum": 1 },
        "warmupDurationMs": { "type": "integer", "minimum": 0 },
        "warmupIterations": { "type": "integer", "minimum": 0 }
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "sampleErrorsTopK": { "type": "integer", "minimum": 0 },
        "saveBodies": { "enum": ["none", "errors"] }
      }
    },
    "env": {
      "type": "object",
      "properties": {
        "variablesSnapshot": {
          "type": "object",
          "additionalProperties": { "type": "string" }
        },
        "randomSeed": { "type": "integer" }
      }
    }
  }
}`
