package listing

// listingHTML renders a listing page shaped like the storefront's, with the
// given checkbox inputs and "Next" link markup.
func listingHTML(checkboxes, nav string) string {
	return `<!DOCTYPE html>
<html>
<head><title>My Saved Projects</title></head>
<body>
	<form id="form1" method="post">
	<table class="tb_designs">` + checkboxes + `</table>
	<div id="div_navPage"><span class="pager">` + nav + `</span></div>
	</form>
</body>
</html>`
}

const (
	firstPageCheckboxes = `
		<tr><td><div class="bmcheckbox"><input type="checkbox" id="chk_1001" /></div></td><td>Deck A</td></tr>
		<tr><td><div class="bmcheckbox"><input type="checkbox" id="chk_1002" /></div></td><td>Deck B</td></tr>`

	nextWithHref    = `<a href="javascript:__doPostBack('pager','2')">Next</a>`
	nextWithoutHref = `<a>Next</a>`
	nextEmptyHref   = `<a href="">Next</a>`
)
