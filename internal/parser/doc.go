// Package parser contains the extraction strategies that turn one venue's
// wire format into normalized events, and the registry that picks a strategy
// per venue.
//
// Four generic strategies cover the common conventions: CSS-selector HTML
// pages, Schema.org JSON-LD blocks, the WordPress/Tribe-Events REST API, and
// ad-hoc AJAX/JSON endpoints. Venues whose markup defeats the generic
// strategies get a hand-written strategy registered under their key, which
// always wins over source-type selection.
//
// Strategies are stateless (the WordPress category cache is the one
// deliberate exception) and safe for concurrent use across venues.
package parser
