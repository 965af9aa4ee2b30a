package filters

import (
	"math/rand"
	"strconv"
	"testing"
)

// resetFilterState isolates a test from package state and the live bulk
// indexer; deletions are recorded instead of issued.
func resetFilterState(t *testing.T) *[]string {
	t.Helper()

	origMap := filterMap
	origMapB := filterMapB
	origBundled := filterBundled
	origLabels := filterLabels
	origDelete := deleteExcluded
	t.Cleanup(func() {
		filterMap = origMap
		filterMapB = origMapB
		filterBundled = origBundled
		filterLabels = origLabels
		deleteExcluded = origDelete
	})

	filterMap = make(map[string]int)
	filterMapB = make(map[string]int)
	filterBundled = nil
	filterLabels = []string{""}

	var deleted []string
	deleteExcluded = func(cid string) {
		deleted = append(deleted, cid)
	}
	return &deleted
}

func TestFilter(t *testing.T) {
	caseCount := 100000
	Clear()

	testCases := make([]string, caseCount)
	for i := 0; i < caseCount; i++ {
		testCases[i] = strconv.Itoa(i*10 + rand.Intn(10))
	}

	rand.Shuffle(len(testCases), func(i, j int) {
		testCases[i], testCases[j] = testCases[j], testCases[i]
	})

	for k, v := range testCases {
		if k%2 == 0 {
			Add(v, "")
		}
	}

	if len(filterMap) != caseCount/2 {
		t.Error("incorrect filterList length")
	}

	for k, v := range testCases {
		if Contains(v) != (k%2 == 0) {
			t.Error("filter contents mismatch")
			return
		}
	}
}

func TestProcessList(t *testing.T) {
	Clear()
	filterMapB = make(map[string]int)

	processList("# comment line\n2244 aspirin\n702\nnot-a-cid\n\n", "test")

	if len(filterMapB) != 2 {
		t.Fatalf("expected 2 parsed CIDs, received %d", len(filterMapB))
	}
	for _, cid := range []string{"2244", "702"} {
		if _, ok := filterMapB[cid]; !ok {
			t.Errorf("missing CID %s", cid)
		}
	}
}

func TestSwapLists(t *testing.T) {
	deleted := resetFilterState(t)

	processList("100\n200\n", "bundled")
	snapshotBundled()

	// first refresh carries a remote entry on top of the bundled ones
	processList("300\n", "remote")
	swapLists()

	for _, cid := range []string{"100", "200", "300"} {
		if !Contains(cid) {
			t.Errorf("expected %s excluded after first swap", cid)
		}
	}
	if len(*deleted) != 3 {
		t.Errorf("expected 3 deletions after first swap, received %d (%v)", len(*deleted), *deleted)
	}

	// second refresh drops the remote entry; the bundled snapshot reseeds
	// the staging map so only 100 and 200 survive
	swapLists()

	if Contains("300") {
		t.Error("300 left the remote list but is still excluded")
	}
	for _, cid := range []string{"100", "200"} {
		if !Contains(cid) {
			t.Errorf("bundled cid %s did not survive the swap", cid)
		}
	}
	if len(*deleted) != 3 {
		t.Errorf("unexpected deletions on second swap: %v", *deleted)
	}
}

func TestBundledSnapshotIsolation(t *testing.T) {
	resetFilterState(t)

	processList("100\n", "bundled")
	snapshotBundled()

	// a remote update must not write through into the snapshot
	processList("300\n", "remote")

	if _, ok := filterBundled["300"]; ok {
		t.Error("remote cid leaked into the bundled snapshot")
	}
	if len(filterBundled) != 1 {
		t.Errorf("expected 1 bundled cid, received %d", len(filterBundled))
	}
}

func TestContainsDuringSwap(t *testing.T) {
	resetFilterState(t)

	processList("100\n", "bundled")
	snapshotBundled()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			Contains("100")
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		processList("300\n", "remote")
		swapLists()
	}
	<-done

	if !Contains("100") || !Contains("300") {
		t.Error("exclusions lost during concurrent swaps")
	}
}

func TestContainsWithLabel(t *testing.T) {
	Clear()
	Add("12345", "withdrawn")

	ok, label := ContainsWithLabel("12345")
	if !ok || label != "withdrawn" {
		t.Errorf("expected withdrawn label, received %q (%v)", label, ok)
	}

	ok, _ = ContainsWithLabel("99999")
	if ok {
		t.Error("unexpected exclusion hit")
	}
}
