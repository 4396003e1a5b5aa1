/*
Copyright The clk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package downloader keeps a chart's dependency tree up to date while letting
locally available chart sources stand in for remote fetches.

For every declared dependency of the root chart, in order of preference: a
matching source chart is packaged directly into charts/ (after resolving
the source's own dependencies the same way), an archive already on disk is
reused, and whatever remains is fetched in a single batch through a
Fetcher. Reused and freshly fetched archives are then re-checked for nested
subcharts a source applies to, however deep, and repackaged when one does.
*/
package downloader
