package gql

import "net/http"

// graphiql serves a minimal in-browser console wired at /graphql/query.
func graphiql() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page) //nolint:errcheck
	}
}

var page = []byte(`
<!DOCTYPE html>
<html>
<head>
    <title>uttt-node graphiql</title>
    <link href="https://unpkg.com/graphiql/graphiql.min.css" rel="stylesheet"/>
</head>
<body style="margin: 0;">
    <div id="graphiql" style="height: 100vh;"></div>
    <script src="https://unpkg.com/react/umd/react.production.min.js"></script>
    <script src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
    <script src="https://unpkg.com/graphiql/graphiql.min.js"></script>
    <script>
        const fetcher = GraphiQL.createFetcher({url: '/graphql/query'});
        ReactDOM.render(
            React.createElement(GraphiQL, {fetcher: fetcher}),
            document.getElementById('graphiql'),
        );
    </script>
</body>
</html>
`)
