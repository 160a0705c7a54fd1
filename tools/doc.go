// Package tools defines tool contracts, the validated registry, and the
// smart-home tool set.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive a closed JSON Schema from Go structs.
//   - Registry: name -> schema-validated callable.
//   - Smart-home tools: get_temperature, unlock_door, turn_on_ac.
package tools
