// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The search pipeline is built from small pieces that are tested on
// their own:
//
//   - ClassifyRecord turns raw source records into normalized ones
//   - Projector maps records onto output columns and drops repeats
//   - ColumnFormatter tracks column widths and renders pages
//   - AdaptivePager pulls from sources and decides when to flush a page
//   - OutcomeAggregator turns record and source failures into an exit status
package services
