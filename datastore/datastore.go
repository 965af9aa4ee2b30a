package datastore

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"net/http"
	"os"

	"github.com/azer/logger"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/MysterionRise/chemical-similarity/config"
)

var log = logger.New("datastore")

var client *elastic.Client
var AutoBulk BulkIndexer

// ErrMappingConflict signals that an index already exists with a mapping
// incompatible with the registered one. Not retryable; requires operator
// intervention.
var ErrMappingConflict = errors.New("existing index mapping is incompatible")

var mappings = make(map[string]string)

// Setup connects to elasticsearch, provisions every registered index and
// starts the shared bulk indexer. Indices that already exist with a
// matching mapping are left untouched; a conflicting mapping aborts with
// ErrMappingConflict.
func Setup(ctx context.Context) error {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(viper.GetString("elastic.host")),
		elastic.SetSniff(false),
	}

	if viper.GetBool("elastic.useCert") {
		httpClient, err := certHttpClient()
		if err != nil {
			return errors.Wrap(err, "unable to build tls http client")
		}
		opts = append(opts, elastic.SetHttpClient(httpClient), elastic.SetScheme("https"))
	}

	var err error
	client, err = elastic.NewClient(opts...)
	if err != nil {
		return errors.Wrap(err, "unable to connect to elasticsearch")
	}

	for index, mapping := range mappings {
		err := createIndex(ctx, Index(index), mapping)
		if err != nil {
			return err
		}
	}

	AutoBulk = BeginBulkIndexer()
	return nil
}

// RegisterMapping records a mapping for provisioning during Setup; when
// called after Setup the index is provisioned immediately.
func RegisterMapping(index string, mapping string) error {
	mappings[index] = mapping
	if client != nil {
		return createIndex(context.TODO(), Index(index), mapping)
	}
	return nil
}

func createIndex(ctx context.Context, index string, mapping string) error {
	exists, err := client.IndexExists(index).Do(ctx)
	if err != nil {
		return errors.Wrap(err, "index existence check failure")
	}

	if exists {
		return verifyMapping(ctx, index, mapping)
	}

	createIndex, err := client.CreateIndex(index).BodyString(mapping).Do(ctx)
	if err != nil {
		return errors.Wrap(err, "create index failed")
	}
	if !createIndex.Acknowledged {
		return errors.New("create index not acknowledged")
	}
	log.Info("created index", logger.Attrs{"index": index})

	return nil
}

// verifyMapping checks every property the registered mapping declares
// against the live index. Identical mappings make re-provisioning a no-op;
// a live index missing a field or disagreeing on a parameter is a fatal
// configuration conflict.
func verifyMapping(ctx context.Context, index string, mapping string) error {
	var want struct {
		Mappings struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(mapping), &want); err != nil {
		return errors.Wrapf(err, "registered mapping for %s is not valid json", index)
	}

	live, err := client.GetMapping().Index(index).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "unable to fetch live mapping for %s", index)
	}

	for _, m := range live {
		im, ok := m.(map[string]interface{})
		if !ok {
			return errors.Wrapf(ErrMappingConflict, "index %s returned an unreadable mapping", index)
		}
		props := liveProperties(im)
		for name, def := range want.Mappings.Properties {
			got, ok := props[name]
			if !ok {
				return errors.Wrapf(ErrMappingConflict, "index %s is missing field %q", index, name)
			}
			if !propertyCompatible(def, got) {
				return errors.Wrapf(ErrMappingConflict, "index %s field %q differs from registered mapping", index, name)
			}
		}
	}

	log.Info("index already exists with a compatible mapping", logger.Attrs{"index": index})
	return nil
}

func liveProperties(indexMapping map[string]interface{}) map[string]interface{} {
	m, ok := indexMapping["mappings"].(map[string]interface{})
	if !ok {
		return nil
	}
	props, _ := m["properties"].(map[string]interface{})
	return props
}

// propertyCompatible reports whether every parameter declared by want is
// present and equal in got. Extra parameters on the live side are
// tolerated, elasticsearch reports defaults the registered mapping omits.
func propertyCompatible(want, got interface{}) bool {
	wm, wOk := want.(map[string]interface{})
	gm, gOk := got.(map[string]interface{})
	if wOk != gOk {
		return false
	}
	if !wOk {
		// scalar parameters; both sides decoded by encoding/json so
		// numbers compare as float64
		return want == got
	}
	for k, wv := range wm {
		gv, ok := gm[k]
		if !ok {
			return false
		}
		if !propertyCompatible(wv, gv) {
			return false
		}
	}
	return true
}

// Index applies the configured deployment prefix to an index name.
func Index(name string) string {
	prefix := config.IndexPrefix()
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

func Client() *elastic.Client {
	return client
}

func certHttpClient() (*http.Client, error) {
	cert, err := tls.LoadX509KeyPair(config.GetFilePath("elastic.certFile"), config.GetFilePath("elastic.certKey"))
	if err != nil {
		return nil, errors.Wrap(err, "unable to load client certificate")
	}

	rootPem, err := os.ReadFile(config.GetFilePath("elastic.certRoot"))
	if err != nil {
		return nil, errors.Wrap(err, "unable to read root certificate")
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(rootPem) {
		return nil, errors.New("unable to parse root certificate")
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				RootCAs:      roots,
			},
		},
	}, nil
}
