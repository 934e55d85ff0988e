// Command steamgog reconciles a Steam library export against the GOG
// catalog. Typical flow: `steam export` to pull the owned-games list,
// `gog fetch` and `gog ingest` to load a gogdb backup, `gog match` to run
// the tiered matching passes, then `report` to inspect the results.
package main
