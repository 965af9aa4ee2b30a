package datastore

import (
	"context"
	"sync"
	"time"

	"github.com/azer/logger"
	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/olivere/elastic/v7"

	"github.com/MysterionRise/chemical-similarity/events"
)

func BeginBulkIndexer() BulkIndexer {
	bi := BulkIndexer{
		bulk:           client.Bulk(),
		m:              &sync.Mutex{},
		timedCommitEnd: make(chan struct{}),
	}

	return bi
}

type BulkIndexer struct {
	bulk               *elastic.BulkService
	m                  *sync.Mutex
	timedCommitRate    time.Duration
	timedCommitRunning bool
	timedCommitEnd     chan struct{}
}

func (bi *BulkIndexer) BeginTimedCommits(rate time.Duration) {
	bi.timedCommitRate = rate
	if bi.timedCommitRunning {
		return
	}
	bi.timedCommitRunning = true
	go bi.timedCommit()
}

func (bi *BulkIndexer) timedCommit() {
	for {
		select {
		case <-bi.timedCommitEnd:
			bi.quickCommit()
			return
		case <-time.After(bi.timedCommitRate):
			bi.quickCommit()
		}
	}
}

func (bi *BulkIndexer) quickCommit() {
	bi.m.Lock()
	defer bi.m.Unlock()
	if bi.NumberOfActions() > 0 {
		t := log.Timer()
		estimatedSize := bi.EstimateSizeInBytes()
		log.Info("Quick Indexing %v of data containing %d compounds (%v bytes)", humanize.Bytes(uint64(estimatedSize)), bi.NumberOfActions(), estimatedSize)

		br, err := bi.Do(context.TODO())
		if err != nil {
			log.Error("Error commiting to ES in quickCommit", logger.Attrs{"err": spew.Sdump(err)})
			return
		}

		t.End("Quick Indexed %d compounds, took %v (errors=%v)", len(br.Items), br.Took, br.Errors)
		if br.Errors {
			logBulkItemErrors(br)
		}
	}
}

func (bi *BulkIndexer) EndTimedCommit() {
	bi.timedCommitEnd <- struct{}{}
}

func (bi *BulkIndexer) Do(ctx context.Context) (*elastic.BulkResponse, error) {
	br, err := bi.bulk.Do(ctx)
	if err == nil {
		events.Publish("datastore:commit")
	}
	return br, err
}

func (bi *BulkIndexer) NumberOfActions() int {
	return bi.bulk.NumberOfActions()
}

func (bi *BulkIndexer) EstimateSizeInBytes() int64 {
	return bi.bulk.EstimatedSizeInBytes()
}

func (bi *BulkIndexer) StoreCompound(cd *CompoundData) {
	bir := elastic.NewBulkIndexRequest().
		Index(Index("pubchem")).
		Id(DocID(cd.CID)).
		Doc(cd)
	bi.Add(bir)
}

func (bi *BulkIndexer) DeleteCompound(cid string) {
	bir := elastic.NewBulkDeleteRequest().
		Index(Index("pubchem")).
		Id(cid)
	bi.Add(bir)
}

func (bi *BulkIndexer) Add(bir ...elastic.BulkableRequest) {
	bi.m.Lock()
	bi.bulk.Add(bir...)
	bi.m.Unlock()
	_, err := bi.CheckSizeStore(context.TODO())
	if err != nil {
		log.Error("error storing after add")
	}
}

// Flush commits whatever is buffered regardless of size.
func (bi *BulkIndexer) Flush(ctx context.Context) error {
	bi.m.Lock()
	defer bi.m.Unlock()
	if bi.NumberOfActions() == 0 {
		return nil
	}

	t := log.Timer()
	br, err := bi.Do(ctx)
	if err != nil {
		return err
	}

	t.End("Flushed compounds", logger.Attrs{"items": len(br.Items), "took": br.Took, "errors": br.Errors})
	if br.Errors {
		logBulkItemErrors(br)
	}
	return nil
}

type BulkIndexerResponse struct {
	*elastic.BulkResponse
	EstimatedSize int64
	Stored        bool
}

func (bi *BulkIndexer) CheckSizeStore(ctx context.Context) (BulkIndexerResponse, error) {
	bi.m.Lock()
	defer bi.m.Unlock()
	estimatedSize := bi.EstimateSizeInBytes()

	// https://www.elastic.co/guide/en/elasticsearch/reference/master/tune-for-indexing-speed.html#_use_bulk_requests
	// > it is advisable to avoid going beyond a couple tens of megabytes per request even if larger requests seem to perform better.
	if estimatedSize > 10*humanize.MByte {
		log.Info("Bulk Indexing %s of data, %d bulk actions", humanize.Bytes(uint64(estimatedSize)), bi.NumberOfActions())
		t := log.Timer()
		br, err := bi.Do(ctx)
		if err != nil {
			log.Error("error on bulk indexing!", logger.Attrs{
				"spewError": spew.Sdump(err),
			})
			return BulkIndexerResponse{}, err
		}

		t.End("Bulk Indexed %d compounds, took %v (errors=%v)", len(br.Items), br.Took, br.Errors)

		if br.Errors {
			log.Error("Encountered errors during Bulk Action Processing!")
			logBulkItemErrors(br)
		}

		// Bulk request actions should get cleared
		if bi.NumberOfActions() > 0 {
			log.Error("Error Bulk Indexing, number of actions has not been cleared to 0! Remaining Actions: %d", bi.NumberOfActions())
		}

		failedResults := br.Failed()
		if len(failedResults) > 0 {
			log.Error("Error, Bulk Indexing had failed %d results!", len(failedResults))
		}

		return BulkIndexerResponse{
			br,
			estimatedSize,
			true,
		}, nil
	}
	return BulkIndexerResponse{}, nil
}

func logBulkItemErrors(br *elastic.BulkResponse) {
	for _, item := range br.Items {
		for _, value := range item {
			if value.Error != nil {
				log.Error("error executing bulk action", logger.Attrs{
					"index":  value.Index,
					"id":     value.Id,
					"reason": value.Error.Reason,
					"error":  value.Error,
				})
			}
		}
	}
}
