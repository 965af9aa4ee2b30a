package datastore

// fingerprint terms are the set bit positions of the CACTVS substructure
// fingerprint; boolean similarity scores term presence only, so a bool
// should query counts matching bits and fingerprint_len supplies the
// popcount needed for a Tanimoto coefficient.
const compoundsMapping = `{
  "settings": {
    "index": {
      "number_of_shards": 1,
      "number_of_replicas": 0,
      "refresh_interval": "5m"
    }
  },
  "mappings": {
    "properties": {
      "fingerprint": {
        "type": "keyword",
        "similarity": "boolean"
      },
      "fingerprint_len": {
        "type": "short"
      },
      "smiles": {
        "type": "text",
        "fields": {
          "keyword": {
            "type": "keyword",
            "ignore_above": 256
          }
        }
      }
    }
  }
}`
