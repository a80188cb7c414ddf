package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const indeedFixture = `
<html><body>
<div id="mosaic-jobResults">
  <div class="cardOutline tapItem">
    <a class="jcs-JobTitle" href="/rc/clk?jk=abc123&from=serp">Desenvolvedor Java Júnior</a>
    <span data-testid="company-name">Banco Exemplo</span>
    <div data-testid="text-location">Home Office</div>
    <div data-testid="belowJobSnippet">Atuar com <b>Java</b> e Spring.</div>
    <div data-testid="attribute_snippet_testid">R$ 4.000 - R$ 5.500 por mês</div>
    <span class="date">Publicada há 2 dias</span>
  </div>
  <div class="cardOutline tapItem">
    <a class="jcs-JobTitle" href="https://br.indeed.com/viewjob?jk=def456">Analista de Sistemas</a>
    <span data-testid="company-name">Consultoria XYZ</span>
    <div data-testid="text-location">São Paulo, SP</div>
  </div>
</div>
<nav><a data-testid="pagination-page-next" href="/jobs?q=java&start=10">Próxima</a></nav>
</body></html>`

func TestIndeedAdapter_ParsesCards(t *testing.T) {
	fetcher := &fakeFetcher{html: indeedFixture}
	adapter := NewIndeedAdapter(fetcher, "", "Home Office", 3, common.GetLogger())

	page, err := adapter.FetchPage(context.Background(), "java", 1)
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.True(t, page.HasNextPage)

	first := page.Records[0]
	assert.Equal(t, "Desenvolvedor Java Júnior", first[models.FieldTitle])
	assert.Equal(t, "Banco Exemplo", first[models.FieldCompany])
	assert.Equal(t, "Home Office", first[models.FieldLocation])
	assert.Equal(t, "abc123", first[models.FieldSourceID], "jk parameter becomes the source ID")
	assert.Equal(t, "https://br.indeed.com/rc/clk?jk=abc123&from=serp", first[models.FieldURL])
	assert.Contains(t, first[models.FieldSnippet], "Java")
	assert.Contains(t, first[models.FieldSalary], "R$ 4.000")
	assert.Contains(t, first[models.FieldPostedAt], "2 dias")

	second := page.Records[1]
	assert.Equal(t, "def456", second[models.FieldSourceID])
}

func TestIndeedAdapter_BuildsPagedDateSortedURL(t *testing.T) {
	fetcher := &fakeFetcher{html: "<html></html>"}
	adapter := NewIndeedAdapter(fetcher, "", "Home Office", 3, common.GetLogger())

	_, err := adapter.FetchPage(context.Background(), "java júnior", 3)
	require.NoError(t, err)

	require.Len(t, fetcher.requests, 1)
	url := fetcher.requests[0]
	assert.Contains(t, url, "q=java+j%C3%BAnior")
	assert.Contains(t, url, "l=Home+Office")
	assert.Contains(t, url, "fromage=3")
	assert.Contains(t, url, "sort=date")
	assert.Contains(t, url, "start=20")
}

func TestIndeedAdapter_LastPageHasNoNext(t *testing.T) {
	fetcher := &fakeFetcher{html: `<html><body>
		<div class="cardOutline tapItem"><a class="jcs-JobTitle" href="/viewjob?jk=x">Dev</a></div>
	</body></html>`}
	adapter := NewIndeedAdapter(fetcher, "", "", 0, common.GetLogger())

	page, err := adapter.FetchPage(context.Background(), "dev", 1)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.False(t, page.HasNextPage)
}

func TestIndeedAdapter_FetchFailureIsClassified(t *testing.T) {
	fetcher := &fakeFetcher{err: &httpStatusError{status: 403, url: "https://br.indeed.com/jobs"}}
	adapter := NewIndeedAdapter(fetcher, "", "", 0, common.GetLogger())

	_, err := adapter.FetchPage(context.Background(), "dev", 1)
	require.Error(t, err)
	assert.True(t, interfaces.AdapterErrorIs(err, interfaces.AdapterErrBlocked))
}
